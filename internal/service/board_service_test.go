package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/minervhub/minervhub-api/internal/models"
	appErrors "github.com/minervhub/minervhub-api/pkg/errors"
)

type mockBoardRepo struct {
	listings    []models.ListingDetail
	filterCalls int
}

func (m *mockBoardRepo) FindByID(ctx context.Context, id int64) (*models.ListingDetail, error) {
	for _, l := range m.listings {
		if l.ID == id {
			listing := l
			return &listing, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockBoardRepo) FindAvailable(ctx context.Context) ([]models.ListingDetail, error) {
	return m.FilterAvailable(ctx, models.ListingFilter{})
}

func (m *mockBoardRepo) FilterAvailable(ctx context.Context, filter models.ListingFilter) ([]models.ListingDetail, error) {
	m.filterCalls++
	out := []models.ListingDetail{}
	for _, l := range m.listings {
		if !l.Available {
			continue
		}
		if filter.DegreeProgram != "" && l.DegreeProgram != filter.DegreeProgram {
			continue
		}
		if filter.Exam != "" && l.Exam != filter.Exam {
			continue
		}
		if filter.MaxRate != nil && l.HourlyRate > *filter.MaxRate {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

type memoryCacheRepo struct {
	entries map[string][]models.ListingDetail
	sets    int
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]models.ListingDetail)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	cached, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	listings, ok := dest.(*[]models.ListingDetail)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*listings = cached
	return nil
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	listings, ok := value.([]models.ListingDetail)
	if !ok {
		return nil
	}
	m.entries[key] = listings
	m.sets++
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = make(map[string][]models.ListingDetail)
	return nil
}

func boardFixture() *mockBoardRepo {
	return &mockBoardRepo{listings: []models.ListingDetail{
		{Listing: models.Listing{ID: 1, Title: "Analisi 1", Exam: "Analisi 1", DegreeProgram: "Informatica", HourlyRate: 15, Available: true, Exchange: "Fisica 1,Logica"}},
		{Listing: models.Listing{ID: 2, Title: "Fisica 2", Exam: "Fisica 2", DegreeProgram: "Fisica", HourlyRate: 25, Available: true}},
		{Listing: models.Listing{ID: 3, Title: "Algebra", Exam: "Algebra", DegreeProgram: "Matematica", HourlyRate: 15, Available: true}},
		{Listing: models.Listing{ID: 4, Title: "Retired", Exam: "Analisi 2", DegreeProgram: "Informatica", HourlyRate: 10, Available: false}},
	}}
}

func TestBoardListAvailableSkipsRetired(t *testing.T) {
	repo := boardFixture()
	svc := NewBoardService(repo, nil, nil, zap.NewNop())

	listings, err := svc.ListAvailable(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 3)
	for _, l := range listings {
		assert.True(t, l.Available)
	}
	assert.Equal(t, []string{"Fisica 1", "Logica"}, listings[0].Topics)
}

func TestBoardFilterByMaxRate(t *testing.T) {
	repo := boardFixture()
	svc := NewBoardService(repo, nil, nil, zap.NewNop())

	maxRate := 20
	listings, err := svc.ListFiltered(context.Background(), models.ListingFilter{MaxRate: &maxRate})
	require.NoError(t, err)
	require.Len(t, listings, 2)
	for _, l := range listings {
		assert.LessOrEqual(t, l.HourlyRate, maxRate)
	}
}

func TestBoardFilterRateOutOfRange(t *testing.T) {
	repo := boardFixture()
	svc := NewBoardService(repo, nil, nil, zap.NewNop())

	for _, rate := range []int{2, 4, 51, 100} {
		maxRate := rate
		_, err := svc.ListFiltered(context.Background(), models.ListingFilter{MaxRate: &maxRate})
		require.Error(t, err, rate)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Zero(t, repo.filterCalls)
}

func TestBoardFilterFieldTooLong(t *testing.T) {
	repo := boardFixture()
	svc := NewBoardService(repo, nil, nil, zap.NewNop())

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'x'
	}
	_, err := svc.ListFiltered(context.Background(), models.ListingFilter{Exam: string(long)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBoardEmptyFilterEqualsListAvailable(t *testing.T) {
	repo := boardFixture()
	svc := NewBoardService(repo, nil, nil, zap.NewNop())

	all, err := svc.ListAvailable(context.Background())
	require.NoError(t, err)
	filtered, err := svc.ListFiltered(context.Background(), models.ListingFilter{DegreeProgram: "  ", Exam: ""})
	require.NoError(t, err)
	assert.Equal(t, all, filtered)
}

func TestBoardGetByIDNotFound(t *testing.T) {
	repo := boardFixture()
	svc := NewBoardService(repo, nil, nil, zap.NewNop())

	_, err := svc.GetByID(context.Background(), 999)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBoardCacheHitSkipsRepository(t *testing.T) {
	repo := boardFixture()
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewBoardService(repo, cache, nil, zap.NewNop())

	first, err := svc.ListAvailable(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, repo.filterCalls)
	require.Equal(t, 1, cacheRepo.sets)

	second, err := svc.ListAvailable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.filterCalls)
	assert.Equal(t, first, second)
}
