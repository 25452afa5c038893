package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/catalog-api/internal/core/domain"
	"github.com/99minutos/catalog-api/internal/core/ports"
)

// MockProductService is a mock implementation of ports.ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context) ([]*domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Product), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, in ports.CreateProductInput) (*domain.Product, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id string, in ports.UpdateProductInput) (*domain.Product, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id string) (*domain.Acknowledgement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Acknowledgement), args.Error(1)
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestProductHandler_List(t *testing.T) {
	svc := &MockProductService{}
	svc.On("List", mock.Anything).Return([]*domain.Product{{ID: "1", Name: "Pen", Price: 1.5}}, nil)

	rec := httptest.NewRecorder()
	c := newEcho().NewContext(httptest.NewRequest(http.MethodGet, "/api/products", nil), rec)

	require.NoError(t, NewProductHandler(svc).List(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Pen", body[0]["name"])
	assert.Equal(t, 0.0, body[0]["stock"])
}

func TestProductHandler_Get(t *testing.T) {
	svc := &MockProductService{}
	svc.On("Get", mock.Anything, "abc").Return(&domain.Product{ID: "abc", Name: "Pen"}, nil)
	svc.On("Get", mock.Anything, "missing").Return(nil, domain.ErrProductNotFound)
	h := NewProductHandler(svc)
	e := newEcho()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"abc"`)

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("missing")
	assert.ErrorIs(t, h.Get(c), domain.ErrProductNotFound)
}

func TestProductHandler_Create(t *testing.T) {
	svc := &MockProductService{}
	svc.On("Create", mock.Anything, mock.MatchedBy(func(in ports.CreateProductInput) bool {
		return in.Name != nil && *in.Name == "Pen" &&
			in.Price != nil && *in.Price == 1.5 &&
			in.Stock == nil && in.Description == nil &&
			in.IdempotencyKey == "abc-123"
	})).Return(&domain.Product{ID: "new-id", Name: "Pen", Price: 1.5}, nil)

	req := jsonRequest(http.MethodPost, "/api/products/create", `{"name":"Pen","price":1.5}`)
	req.Header.Set(HeaderIdempotencyKey, "abc-123")
	rec := httptest.NewRecorder()

	require.NoError(t, NewProductHandler(svc).Create(newEcho().NewContext(req, rec)))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"new-id"`)
	svc.AssertExpectations(t)
}

func TestProductHandler_Create_Errors(t *testing.T) {
	svc := &MockProductService{}
	svc.On("Create", mock.Anything, mock.Anything).Return(nil, domain.InvalidInput("name and price are required"))
	h := NewProductHandler(svc)

	err := h.Create(newEcho().NewContext(jsonRequest(http.MethodPost, "/", `{"price":1}`), httptest.NewRecorder()))
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	err = h.Create(newEcho().NewContext(jsonRequest(http.MethodPost, "/", `{"name":`), httptest.NewRecorder()))
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	assert.Equal(t, "invalid payload", err.Error())

	err = h.Create(newEcho().NewContext(jsonRequest(http.MethodPost, "/", `{"name":"Pen","price":"cheap"}`), httptest.NewRecorder()))
	assert.Equal(t, "invalid payload", err.Error())

	svc.AssertNumberOfCalls(t, "Create", 1)
}

func TestProductHandler_Update(t *testing.T) {
	svc := &MockProductService{}
	svc.On("Update", mock.Anything, "abc", mock.MatchedBy(func(in ports.UpdateProductInput) bool {
		return in.Stock != nil && *in.Stock == 7 && in.Name == nil && in.Price == nil
	})).Return(&domain.Product{ID: "abc", Name: "Pen", Stock: 7}, nil)
	svc.On("Update", mock.Anything, "missing", mock.Anything).Return(nil, domain.ErrProductNotFound)
	h := NewProductHandler(svc)
	e := newEcho()

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/", `{"stock":7}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stock":7`)

	c = e.NewContext(jsonRequest(http.MethodPut, "/", `{"stock":7}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("missing")
	assert.ErrorIs(t, h.Update(c), domain.ErrProductNotFound)
}

func TestProductHandler_Delete(t *testing.T) {
	svc := &MockProductService{}
	svc.On("Delete", mock.Anything, "abc").Return(&domain.Acknowledgement{Message: "product deleted successfully"}, nil)
	svc.On("Delete", mock.Anything, "boom").Return(nil, domain.Internal(errors.New("timeout")))
	h := NewProductHandler(svc)
	e := newEcho()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"product deleted successfully"}`, rec.Body.String())

	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("boom")
	assert.Equal(t, domain.KindInternal, domain.KindOf(h.Delete(c)))
}
