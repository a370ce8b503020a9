package market

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/sumika/internal/model"
)

// mockSourceRepo はNewsSourceRepositoryのモック実装。
type mockSourceRepo struct {
	createFunc        func(ctx context.Context, source *model.NewsSource) error
	findByIDFunc      func(ctx context.Context, id string) (*model.NewsSource, error)
	findByFeedURLFunc func(ctx context.Context, feedURL string) (*model.NewsSource, error)
	listFunc          func(ctx context.Context) ([]*model.NewsSource, error)
	deleteFunc        func(ctx context.Context, id string) error
}

func (m *mockSourceRepo) Create(ctx context.Context, source *model.NewsSource) error {
	return m.createFunc(ctx, source)
}
func (m *mockSourceRepo) FindByID(ctx context.Context, id string) (*model.NewsSource, error) {
	return m.findByIDFunc(ctx, id)
}
func (m *mockSourceRepo) FindByFeedURL(ctx context.Context, feedURL string) (*model.NewsSource, error) {
	return m.findByFeedURLFunc(ctx, feedURL)
}
func (m *mockSourceRepo) List(ctx context.Context) ([]*model.NewsSource, error) {
	return m.listFunc(ctx)
}
func (m *mockSourceRepo) ListActive(ctx context.Context) ([]*model.NewsSource, error) {
	return nil, nil
}
func (m *mockSourceRepo) UpdateFetchState(ctx context.Context, source *model.NewsSource) error {
	return nil
}
func (m *mockSourceRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

// mockDetector はFeedDetectorのモック実装。
type mockDetector struct {
	detectFunc func(ctx context.Context, inputURL string) (*DetectResult, error)
}

func (m *mockDetector) Detect(ctx context.Context, inputURL string) (*DetectResult, error) {
	return m.detectFunc(ctx, inputURL)
}

func TestRegisterSource_Success(t *testing.T) {
	detector := &mockDetector{
		detectFunc: func(ctx context.Context, inputURL string) (*DetectResult, error) {
			return &DetectResult{FeedURL: "https://news.example.com/feed.xml", Title: "市場ニュース"}, nil
		},
	}
	var created *model.NewsSource
	sourceRepo := &mockSourceRepo{
		findByFeedURLFunc: func(ctx context.Context, feedURL string) (*model.NewsSource, error) {
			return nil, nil
		},
		createFunc: func(ctx context.Context, source *model.NewsSource) error {
			created = source
			return nil
		},
	}
	svc := NewService(sourceRepo, detector)

	source, err := svc.RegisterSource(context.Background(), "https://news.example.com/", "世田谷区")
	if err != nil {
		t.Fatalf("RegisterSource() error = %v", err)
	}

	if created == nil {
		t.Fatal("source was not persisted")
	}
	if source.FeedURL != "https://news.example.com/feed.xml" {
		t.Errorf("feed URL = %q", source.FeedURL)
	}
	if source.SiteURL != "https://news.example.com/" {
		t.Errorf("site URL = %q", source.SiteURL)
	}
	if source.Title != "市場ニュース" {
		t.Errorf("title = %q", source.Title)
	}
	if source.Location != "世田谷区" {
		t.Errorf("location = %q", source.Location)
	}
	if source.FetchStatus != model.NewsFetchStatusActive {
		t.Errorf("fetch status = %q, want active", source.FetchStatus)
	}
	if source.ID == "" {
		t.Error("ID should be assigned")
	}
}

func TestRegisterSource_DuplicateIsIdempotent(t *testing.T) {
	existing := &model.NewsSource{ID: "source-1", FeedURL: "https://news.example.com/feed.xml"}

	detector := &mockDetector{
		detectFunc: func(ctx context.Context, inputURL string) (*DetectResult, error) {
			return &DetectResult{FeedURL: existing.FeedURL}, nil
		},
	}
	sourceRepo := &mockSourceRepo{
		findByFeedURLFunc: func(ctx context.Context, feedURL string) (*model.NewsSource, error) {
			return existing, nil
		},
		createFunc: func(ctx context.Context, source *model.NewsSource) error {
			t.Error("Create should not be called for duplicate feed URL")
			return nil
		},
	}
	svc := NewService(sourceRepo, detector)

	source, err := svc.RegisterSource(context.Background(), "https://news.example.com/", "")
	if err != nil {
		t.Fatalf("RegisterSource() error = %v", err)
	}
	if source.ID != "source-1" {
		t.Errorf("source ID = %q, want existing source-1", source.ID)
	}
}

func TestRegisterSource_DetectionError(t *testing.T) {
	detector := &mockDetector{
		detectFunc: func(ctx context.Context, inputURL string) (*DetectResult, error) {
			return nil, model.NewFeedNotDetectedError(inputURL)
		},
	}
	svc := NewService(&mockSourceRepo{}, detector)

	_, err := svc.RegisterSource(context.Background(), "https://example.com/", "")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeFeedNotDetected {
		t.Errorf("error = %v, want FEED_NOT_DETECTED", err)
	}
}

func TestDeleteSource_NotFound(t *testing.T) {
	sourceRepo := &mockSourceRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.NewsSource, error) {
			return nil, nil
		},
	}
	svc := NewService(sourceRepo, &mockDetector{})

	err := svc.DeleteSource(context.Background(), "missing")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSourceNotFound {
		t.Errorf("error = %v, want SOURCE_NOT_FOUND", err)
	}
}

func TestDeleteSource_Success(t *testing.T) {
	var deleted string
	sourceRepo := &mockSourceRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.NewsSource, error) {
			return &model.NewsSource{ID: id}, nil
		},
		deleteFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := NewService(sourceRepo, &mockDetector{})

	if err := svc.DeleteSource(context.Background(), "source-1"); err != nil {
		t.Fatalf("DeleteSource() error = %v", err)
	}
	if deleted != "source-1" {
		t.Errorf("deleted = %q, want source-1", deleted)
	}
}
