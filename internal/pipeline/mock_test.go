package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/geopost/internal/model"
	"github.com/sells-group/geopost/internal/source"
	"github.com/sells-group/geopost/internal/store"
	"github.com/sells-group/geopost/pkg/geocode"
)

// --- Post source ---

// sliceSource yields posts in order, then end (io.EOF when nil).
type sliceSource struct {
	posts  []*model.Post
	end    error
	closed bool
}

func (s *sliceSource) Next(_ context.Context) (*model.Post, error) {
	if len(s.posts) == 0 {
		if s.end != nil {
			return nil, s.end
		}
		return nil, io.EOF
	}
	p := s.posts[0]
	s.posts = s.posts[1:]
	return p, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

func openerFor(src source.PostSource) source.Opener {
	return func(context.Context) (source.PostSource, error) { return src, nil }
}

// --- Geocode provider ---

// mapProvider answers from a fixed location table.
type mapProvider struct {
	results map[string]*geocode.Result
	calls   []string
}

func (m *mapProvider) Name() string { return "fake" }

func (m *mapProvider) Delay() time.Duration { return 0 }

func (m *mapProvider) Geocode(_ context.Context, location string) (*geocode.Result, error) {
	m.calls = append(m.calls, location)
	if r, ok := m.results[location]; ok {
		return r, nil
	}
	return &geocode.Result{}, nil
}

// --- Store mock ---

type mockStore struct {
	mock.Mock
}

var _ store.Store = (*mockStore)(nil)

func (m *mockStore) CreateRun(ctx context.Context, query, backend string) (*model.RunRecord, error) {
	args := m.Called(ctx, query, backend)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RunRecord), args.Error(1)
}

func (m *mockStore) UpdateRunState(ctx context.Context, runID string, state model.RunState) error {
	return m.Called(ctx, runID, state).Error(0)
}

func (m *mockStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	return m.Called(ctx, runID, result).Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.RunRecord, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RunRecord), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.RunRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RunRecord), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

// --- Fixtures ---

var postTime = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

// weatherPosts is the three-post example: A embedded, B geocodable, C
// neither.
func weatherPosts() []*model.Post {
	return []*model.Post{
		{
			ID: 1, Text: "A sunny", CreatedAt: postTime,
			RawCoordinates: `{"type":"Point","coordinates":[20,10]}`,
			RawGeo:         `{"type":"Point","coordinates":[10,20]}`,
			EmbeddedGeo:    json.RawMessage(`{"type":"Point","coordinates":[20,10]}`),
		},
		{
			ID: 2, Text: "B rainy", Location: "Springfield", CreatedAt: postTime,
			RawCoordinates: model.NoneValue, RawGeo: model.NoneValue,
		},
		{
			ID: 3, Text: "C windy", CreatedAt: postTime,
			RawCoordinates: model.NoneValue, RawGeo: model.NoneValue,
		},
	}
}

func springfield() *mapProvider {
	return &mapProvider{results: map[string]*geocode.Result{
		"Springfield": {Latitude: 5, Longitude: 6, Matched: true, Address: "Springfield"},
		"France":      {Latitude: 46, Longitude: 2, Matched: true, CountryLevel: true},
	}}
}
