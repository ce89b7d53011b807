package source

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Credentials are the four OAuth 1.0a strings the search API requires.
type Credentials struct {
	ConsumerKey       string `json:"ConsumerKey" yaml:"consumer_key"`
	ConsumerSecret    string `json:"ConsumerSecret" yaml:"consumer_secret"`
	AccessToken       string `json:"AccessToken" yaml:"access_token"`
	AccessTokenSecret string `json:"AccessTokenSecret" yaml:"access_token_secret"`
}

// Validate reports the first missing field.
func (c Credentials) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"ConsumerKey", c.ConsumerKey},
		{"ConsumerSecret", c.ConsumerSecret},
		{"AccessToken", c.AccessToken},
		{"AccessTokenSecret", c.AccessTokenSecret},
	} {
		if strings.TrimSpace(f.value) == "" {
			return eris.Errorf("source: credentials missing %s", f.name)
		}
	}
	return nil
}

// LoadCredentials reads a JSON credentials file, or YAML when the extension
// is .yaml or .yml.
func LoadCredentials(path string) (Credentials, error) {
	var c Credentials
	data, err := os.ReadFile(path)
	if err != nil {
		return c, eris.Wrapf(err, "source: read credentials %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	default:
		err = json.Unmarshal(data, &c)
	}
	if err != nil {
		return c, eris.Wrapf(err, "source: parse credentials %s", path)
	}
	return c, c.Validate()
}
