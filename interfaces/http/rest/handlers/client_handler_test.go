package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"omnichannel/domain/entities"
	apperrors "omnichannel/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryRepo struct {
	clients map[int]*entities.Client
	nextID  int
	err     error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{clients: make(map[int]*entities.Client)}
}

func (m *memoryRepo) GetAll(ctx context.Context) ([]*entities.Client, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*entities.Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryRepo) GetByID(ctx context.Context, id int) (*entities.Client, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.clients[id], nil
}

func (m *memoryRepo) Create(ctx context.Context, client *entities.Client) (*entities.Client, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	client.ClientID = m.nextID
	client.ApplyDefaults(time.Now())
	m.clients[client.ClientID] = client
	return client, nil
}

func (m *memoryRepo) Update(ctx context.Context, client *entities.Client) error {
	if m.err != nil {
		return m.err
	}
	m.clients[client.ClientID] = client
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int) error {
	if m.err != nil {
		return m.err
	}
	delete(m.clients, id)
	return nil
}

func (m *memoryRepo) Exists(ctx context.Context, id int) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.clients[id]
	return ok, nil
}

func newClientRouter(repo *memoryRepo) http.Handler {
	handler := NewClientHandler(repo, zap.NewNop())
	r := chi.NewRouter()
	r.Get("/clients", handler.ListClients)
	r.Post("/clients", handler.CreateClient)
	r.Get("/clients/{clientID}", handler.GetClient)
	r.Put("/clients/{clientID}", handler.UpdateClient)
	r.Delete("/clients/{clientID}", handler.DeleteClient)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateClientHandler(t *testing.T) {
	t.Run("valid request creates the client", func(t *testing.T) {
		repo := newMemoryRepo()
		router := newClientRouter(repo)

		rec := doJSON(t, router, http.MethodPost, "/clients", CreateClientRequest{
			FullName: "Ada Lovelace",
			Email:    "ada@example.com",
		})

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Data entities.Client `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Data.ClientID)
		assert.Equal(t, entities.StatusActive, resp.Data.Status)
		assert.Equal(t, entities.AttributionCore, resp.Data.LastModifiedBy)
	})

	t.Run("invalid email is rejected", func(t *testing.T) {
		repo := newMemoryRepo()
		router := newClientRouter(repo)

		rec := doJSON(t, router, http.MethodPost, "/clients", CreateClientRequest{
			FullName: "Ada Lovelace",
			Email:    "not-an-email",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, repo.clients)
	})

	t.Run("missing full name is rejected", func(t *testing.T) {
		repo := newMemoryRepo()
		router := newClientRouter(repo)

		rec := doJSON(t, router, http.MethodPost, "/clients", CreateClientRequest{
			Email: "ada@example.com",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("allocation conflict maps to 409", func(t *testing.T) {
		repo := newMemoryRepo()
		repo.err = apperrors.NewConflictError("client id allocation lost to a concurrent writer")
		router := newClientRouter(repo)

		rec := doJSON(t, router, http.MethodPost, "/clients", CreateClientRequest{
			FullName: "Ada Lovelace",
			Email:    "ada@example.com",
		})

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestGetClientHandler(t *testing.T) {
	repo := newMemoryRepo()
	_, err := repo.Create(context.Background(), &entities.Client{FullName: "Ada Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)
	router := newClientRouter(repo)

	t.Run("existing client is returned", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/clients/1", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data entities.Client `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Ada Lovelace", resp.Data.FullName)
	})

	t.Run("unknown identifier yields 404", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/clients/99", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-numeric identifier yields 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/clients/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list returns all clients", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/clients", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data []entities.Client `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 1)
	})
}

func TestUpdateClientHandler(t *testing.T) {
	t.Run("partial update leaves absent fields untouched", func(t *testing.T) {
		repo := newMemoryRepo()
		_, err := repo.Create(context.Background(), &entities.Client{
			FullName:             "Ada Lovelace",
			Email:                "ada@example.com",
			AssignedManagerEmail: "manager@example.com",
		})
		require.NoError(t, err)
		router := newClientRouter(repo)

		name := "Ada King"
		rec := doJSON(t, router, http.MethodPut, "/clients/1", UpdateClientRequest{FullName: &name})

		require.Equal(t, http.StatusOK, rec.Code)
		stored := repo.clients[1]
		assert.Equal(t, "Ada King", stored.FullName)
		assert.Equal(t, "ada@example.com", stored.Email)
		assert.Equal(t, "manager@example.com", stored.AssignedManagerEmail)
		assert.Equal(t, entities.AttributionCore, stored.LastModifiedBy)
	})

	t.Run("updating an unknown client yields 404", func(t *testing.T) {
		router := newClientRouter(newMemoryRepo())

		name := "Nobody"
		rec := doJSON(t, router, http.MethodPut, "/clients/5", UpdateClientRequest{FullName: &name})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid email in update is rejected", func(t *testing.T) {
		repo := newMemoryRepo()
		_, err := repo.Create(context.Background(), &entities.Client{FullName: "Ada", Email: "ada@example.com"})
		require.NoError(t, err)
		router := newClientRouter(repo)

		bad := "nope"
		rec := doJSON(t, router, http.MethodPut, "/clients/1", UpdateClientRequest{Email: &bad})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ada@example.com", repo.clients[1].Email)
	})
}

func TestDeleteClientHandler(t *testing.T) {
	t.Run("existing client is removed", func(t *testing.T) {
		repo := newMemoryRepo()
		_, err := repo.Create(context.Background(), &entities.Client{FullName: "Ada", Email: "ada@example.com"})
		require.NoError(t, err)
		router := newClientRouter(repo)

		rec := doJSON(t, router, http.MethodDelete, "/clients/1", nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, repo.clients)
	})

	t.Run("unknown identifier yields 404", func(t *testing.T) {
		router := newClientRouter(newMemoryRepo())

		rec := doJSON(t, router, http.MethodDelete, "/clients/7", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
