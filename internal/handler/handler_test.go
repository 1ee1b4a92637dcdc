package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kotoba-dev/kotoba/internal/config"
	"github.com/kotoba-dev/kotoba/internal/domain"
	"github.com/kotoba-dev/kotoba/internal/engine"
	internal_errors "github.com/kotoba-dev/kotoba/internal/errors"
	"github.com/kotoba-dev/kotoba/internal/jwt"
	"github.com/kotoba-dev/kotoba/internal/render"
)

type MockAdmissionService struct {
	MockSubmit       func(ctx context.Context, threadId domain.ThreadId, draft domain.PostCreationData, proposed []domain.ProposedAttachment, addr netip.Addr) (*engine.AdmissionReceipt, error)
	MockCreateThread func(ctx context.Context, data domain.ThreadCreationData, proposed []domain.ProposedAttachment, addr netip.Addr) (*engine.ThreadReceipt, error)
}

func (m *MockAdmissionService) Submit(ctx context.Context, threadId domain.ThreadId, draft domain.PostCreationData, proposed []domain.ProposedAttachment, addr netip.Addr) (*engine.AdmissionReceipt, error) {
	if m.MockSubmit != nil {
		return m.MockSubmit(ctx, threadId, draft, proposed, addr)
	}
	return &engine.AdmissionReceipt{}, nil
}

func (m *MockAdmissionService) CreateThread(ctx context.Context, data domain.ThreadCreationData, proposed []domain.ProposedAttachment, addr netip.Addr) (*engine.ThreadReceipt, error) {
	if m.MockCreateThread != nil {
		return m.MockCreateThread(ctx, data, proposed, addr)
	}
	return &engine.ThreadReceipt{}, nil
}

type MockListingService struct {
	MockSearch      func(ctx context.Context, query string, page int) (domain.Page[domain.PostSummary], error)
	MockListThreads func(ctx context.Context, categoryAlias domain.CategoryAlias, page int) (domain.Page[domain.ThreadSummary], error)
}

func (m *MockListingService) Search(ctx context.Context, query string, page int) (domain.Page[domain.PostSummary], error) {
	if m.MockSearch != nil {
		return m.MockSearch(ctx, query, page)
	}
	return domain.Page[domain.PostSummary]{}, nil
}

func (m *MockListingService) ListThreads(ctx context.Context, categoryAlias domain.CategoryAlias, page int) (domain.Page[domain.ThreadSummary], error) {
	if m.MockListThreads != nil {
		return m.MockListThreads(ctx, categoryAlias, page)
	}
	return domain.Page[domain.ThreadSummary]{}, nil
}

type MockModerationService struct {
	MockSetThreadClosed func(ctx context.Context, threadId domain.ThreadId, closed bool) error
	MockSetThreadPinned func(ctx context.Context, threadId domain.ThreadId, pinned bool) error
	MockDeleteThread    func(ctx context.Context, threadId domain.ThreadId) error
	MockDeletePost      func(ctx context.Context, postId domain.PostId) error
	MockCreateBan       func(ctx context.Context, data domain.BanCreationData) (domain.BanId, error)
	MockDeleteBan       func(ctx context.Context, banId domain.BanId) error
	MockListBans        func(ctx context.Context) ([]domain.Ban, error)
}

func (m *MockModerationService) SetThreadClosed(ctx context.Context, threadId domain.ThreadId, closed bool) error {
	if m.MockSetThreadClosed != nil {
		return m.MockSetThreadClosed(ctx, threadId, closed)
	}
	return nil
}

func (m *MockModerationService) SetThreadPinned(ctx context.Context, threadId domain.ThreadId, pinned bool) error {
	if m.MockSetThreadPinned != nil {
		return m.MockSetThreadPinned(ctx, threadId, pinned)
	}
	return nil
}

func (m *MockModerationService) DeleteThread(ctx context.Context, threadId domain.ThreadId) error {
	if m.MockDeleteThread != nil {
		return m.MockDeleteThread(ctx, threadId)
	}
	return nil
}

func (m *MockModerationService) DeletePost(ctx context.Context, postId domain.PostId) error {
	if m.MockDeletePost != nil {
		return m.MockDeletePost(ctx, postId)
	}
	return nil
}

func (m *MockModerationService) CreateBan(ctx context.Context, data domain.BanCreationData) (domain.BanId, error) {
	if m.MockCreateBan != nil {
		return m.MockCreateBan(ctx, data)
	}
	return domain.BanId{}, nil
}

func (m *MockModerationService) DeleteBan(ctx context.Context, banId domain.BanId) error {
	if m.MockDeleteBan != nil {
		return m.MockDeleteBan(ctx, banId)
	}
	return nil
}

func (m *MockModerationService) ListBans(ctx context.Context) ([]domain.Ban, error) {
	if m.MockListBans != nil {
		return m.MockListBans(ctx)
	}
	return nil, nil
}

type MockContentStore struct {
	MockGetThreadWithPosts func(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	MockGetCategoryByAlias func(ctx context.Context, alias domain.CategoryAlias) (domain.Category, error)
	MockListCategories     func(ctx context.Context) ([]domain.Category, error)
	MockCreateBoard        func(ctx context.Context, name string) (domain.BoardId, error)
	MockCreateCategory     func(ctx context.Context, data domain.CategoryCreationData) (domain.CategoryId, error)
	MockCreateNotice       func(ctx context.Context, postId domain.PostId, author, text string) (domain.NoticeId, error)
	MockPing               func(ctx context.Context) error
}

func (m *MockContentStore) GetThreadWithPosts(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	if m.MockGetThreadWithPosts != nil {
		return m.MockGetThreadWithPosts(ctx, id)
	}
	return domain.Thread{}, internal_errors.NotFound
}

func (m *MockContentStore) GetCategoryByAlias(ctx context.Context, alias domain.CategoryAlias) (domain.Category, error) {
	if m.MockGetCategoryByAlias != nil {
		return m.MockGetCategoryByAlias(ctx, alias)
	}
	return domain.Category{}, internal_errors.NotFound
}

func (m *MockContentStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if m.MockListCategories != nil {
		return m.MockListCategories(ctx)
	}
	return nil, nil
}

func (m *MockContentStore) CreateBoard(ctx context.Context, name string) (domain.BoardId, error) {
	if m.MockCreateBoard != nil {
		return m.MockCreateBoard(ctx, name)
	}
	return domain.BoardId{}, nil
}

func (m *MockContentStore) CreateCategory(ctx context.Context, data domain.CategoryCreationData) (domain.CategoryId, error) {
	if m.MockCreateCategory != nil {
		return m.MockCreateCategory(ctx, data)
	}
	return domain.CategoryId{}, nil
}

func (m *MockContentStore) CreateNotice(ctx context.Context, postId domain.PostId, author, text string) (domain.NoticeId, error) {
	if m.MockCreateNotice != nil {
		return m.MockCreateNotice(ctx, postId, author, text)
	}
	return domain.NoticeId{}, nil
}

func (m *MockContentStore) Ping(ctx context.Context) error {
	if m.MockPing != nil {
		return m.MockPing(ctx)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Public: config.Public{
			ThreadsPerPage: 10,
			SearchPageSize: 10,
		},
		Private: config.Private{
			HashPepper: "pepper",
		},
	}
}

type testDeps struct {
	admission  *MockAdmissionService
	listing    *MockListingService
	moderation *MockModerationService
	store      *MockContentStore
}

func newTestHandler() (*Handler, *testDeps) {
	deps := &testDeps{
		admission:  &MockAdmissionService{},
		listing:    &MockListingService{},
		moderation: &MockModerationService{},
		store:      &MockContentStore{},
	}
	h := New(deps.admission, deps.listing, deps.moderation, deps.store, render.New(), testConfig(), jwt.New("test-secret", time.Hour))
	return h, deps
}

// newTestRouter mounts the handler under the same routes the real router
// uses, minus middleware.
func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/auth/login", h.Login)
	r.Get("/v1/search", h.Search)
	r.Get("/v1/{category}", h.ListThreads)
	r.Post("/v1/{category}", h.CreateThread)
	r.Get("/v1/{category}/{thread}", h.GetThread)
	r.Post("/v1/{category}/{thread}", h.CreatePost)
	r.Put("/v1/mod/threads/{thread}/closed", h.SetThreadClosed)
	r.Delete("/v1/mod/threads/{thread}", h.DeleteThread)
	r.Post("/v1/mod/bans", h.CreateBan)
	r.Get("/v1/mod/bans", h.ListBans)
	return r
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rr, req)
	return rr
}
