package contract_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/nanashi-dev/nanashi-board/internal/dto"
	"github.com/nanashi-dev/nanashi-board/internal/handler"
)

type stubBoardService struct {
	threads []dto.ThreadResponse
	created dto.PostResponse
}

func (s stubBoardService) CreateThread(_ context.Context, _ string, payload dto.ThreadCreateRequest) (dto.ThreadResponse, error) {
	return dto.ThreadResponse{ID: 1, Title: payload.Title, CreatedAt: time.Now().UTC()}, nil
}

func (s stubBoardService) ListThreads(context.Context) ([]dto.ThreadResponse, error) {
	return s.threads, nil
}

func (s stubBoardService) ListPosts(context.Context, uint) ([]dto.PostResponse, error) {
	return nil, nil
}

func (s stubBoardService) SubmitPost(context.Context, uint, string, dto.PostCreateRequest, time.Time) (dto.PostResponse, error) {
	return s.created, nil
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func newBoardApp(svc stubBoardService) *fiber.App {
	app := fiber.New()
	boardHandler := handler.NewBoardHandler(svc, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	boardHandler.Register(app.Group("/api/v1/threads"))
	return app
}

func TestPostCreatedResponseMatchesContract(t *testing.T) {
	schema := compileSchema(t, "post_created.schema.json")

	svc := stubBoardService{created: dto.PostResponse{
		ID:         7,
		ThreadID:   3,
		Seq:        1,
		AuthorName: "Anonymous",
		Body:       "hello",
		CreatedAt:  time.Now().UTC(),
	}}
	app := newBoardApp(svc)

	body, err := json.Marshal(dto.PostCreateRequest{Body: "hello"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/threads/3/posts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestThreadListResponseMatchesContract(t *testing.T) {
	schema := compileSchema(t, "thread_list.schema.json")

	svc := stubBoardService{threads: []dto.ThreadResponse{
		{ID: 2, Title: "Random", PostCount: 0, CreatedAt: time.Now().UTC()},
		{ID: 1, Title: "General", PostCount: 4, CreatedAt: time.Now().UTC().Add(-time.Hour)},
	}}
	app := newBoardApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/threads", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.NoError(t, schema.Validate(payload))
}
