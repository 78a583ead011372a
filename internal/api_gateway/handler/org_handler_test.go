package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/service"
	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/domain/org"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

func TestOrgHandler_Areas(t *testing.T) {
	logger := newTestLogger()
	admin := access.NewPrincipal(uuid.New(), "admin@example.org", true, nil)

	t.Run("CreateArea", func(t *testing.T) {
		orgs := new(MockOrgService)
		handler := NewOrgHandler(logger, orgs)

		bankID := uuid.New()
		budget := int64(500000)
		area := &org.Area{ID: uuid.New(), Name: "Youth", Currency: "EUR", Budget: &budget, BankAccountID: &bankID, CreatedAt: time.Now().UTC()}
		orgs.On("CreateArea", mock.Anything, admin, service.CreateAreaInput{
			Name:          "Youth",
			Currency:      "EUR",
			Budget:        &budget,
			BankAccountID: &bankID,
		}).Return(area, nil)

		router := setupTestRouter(admin)
		router.POST("/areas", handler.CreateArea)

		body := jsonBody(t, map[string]interface{}{
			"name":            "Youth",
			"currency":        "EUR",
			"budget":          budget,
			"bank_account_id": bankID.String(),
		})
		req, _ := http.NewRequest(http.MethodPost, "/areas", body)
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		var got org.Area
		decodeData(t, rr, &got)
		assert.Equal(t, area.ID, got.ID)
		orgs.AssertExpectations(t)
	})

	t.Run("CreateAreaForbiddenForNonAdmin", func(t *testing.T) {
		orgs := new(MockOrgService)
		handler := NewOrgHandler(logger, orgs)
		p := testPrincipal()
		orgs.On("CreateArea", mock.Anything, p, mock.Anything).Return(nil, access.ErrForbidden{Action: access.ActionManage})

		router := setupTestRouter(p)
		router.POST("/areas", handler.CreateArea)

		req, _ := http.NewRequest(http.MethodPost, "/areas", bytes.NewBufferString(`{"name":"Youth","currency":"EUR"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("ListAreas", func(t *testing.T) {
		orgs := new(MockOrgService)
		handler := NewOrgHandler(logger, orgs)
		orgs.On("ListAreas", mock.Anything, admin).Return([]*org.Area{{ID: uuid.New(), Name: "Youth", Currency: "EUR"}}, nil)

		router := setupTestRouter(admin)
		router.GET("/areas", handler.ListAreas)

		req, _ := http.NewRequest(http.MethodGet, "/areas", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var got []org.Area
		decodeData(t, rr, &got)
		assert.Len(t, got, 1)
	})

	t.Run("DeleteAreaInUse", func(t *testing.T) {
		orgs := new(MockOrgService)
		handler := NewOrgHandler(logger, orgs)
		id := uuid.New()
		orgs.On("DeleteArea", mock.Anything, admin, id).
			Return(org.ErrEntityInUse{Entity: "area", ID: id, Reason: "movements reference it"})

		router := setupTestRouter(admin)
		router.DELETE("/areas/:id", handler.DeleteArea)

		req, _ := http.NewRequest(http.MethodDelete, "/areas/"+id.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, decodeResponse(t, rr).Error.Message, "movements reference it")
	})

	t.Run("DeleteAreaNotFound", func(t *testing.T) {
		orgs := new(MockOrgService)
		handler := NewOrgHandler(logger, orgs)
		id := uuid.New()
		orgs.On("DeleteArea", mock.Anything, admin, id).Return(org.ErrAreaNotFound{AreaID: id})

		router := setupTestRouter(admin)
		router.DELETE("/areas/:id", handler.DeleteArea)

		req, _ := http.NewRequest(http.MethodDelete, "/areas/"+id.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestOrgHandler_Departments(t *testing.T) {
	logger := newTestLogger()
	admin := access.NewPrincipal(uuid.New(), "admin@example.org", true, nil)

	t.Run("CreatePrivateFund", func(t *testing.T) {
		orgs := new(MockOrgService)
		handler := NewOrgHandler(logger, orgs)

		areaID, userID := uuid.New(), uuid.New()
		dept := &org.Department{ID: uuid.New(), AreaID: areaID, Name: "Ana's fund", UserID: &userID}
		orgs.On("CreateDepartment", mock.Anything, admin, service.CreateDepartmentInput{
			AreaID: areaID,
			Name:   "Ana's fund",
			UserID: &userID,
		}).Return(dept, nil)

		router := setupTestRouter(admin)
		router.POST("/departments", handler.CreateDepartment)

		body := jsonBody(t, map[string]string{"area_id": areaID.String(), "name": "Ana's fund", "user_id": userID.String()})
		req, _ := http.NewRequest(http.MethodPost, "/departments", body)
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		orgs.AssertExpectations(t)
	})

	t.Run("ListFilteredByArea", func(t *testing.T) {
		orgs := new(MockOrgService)
		handler := NewOrgHandler(logger, orgs)
		areaID := uuid.New()
		orgs.On("ListDepartments", mock.Anything, admin, &areaID).Return([]*org.Department{}, nil)

		router := setupTestRouter(admin)
		router.GET("/departments", handler.ListDepartments)

		req, _ := http.NewRequest(http.MethodGet, "/departments?area_id="+areaID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		orgs.AssertExpectations(t)
	})

	t.Run("ListAll", func(t *testing.T) {
		orgs := new(MockOrgService)
		handler := NewOrgHandler(logger, orgs)
		orgs.On("ListDepartments", mock.Anything, admin, (*uuid.UUID)(nil)).Return([]*org.Department{}, nil)

		router := setupTestRouter(admin)
		router.GET("/departments", handler.ListDepartments)

		req, _ := http.NewRequest(http.MethodGet, "/departments", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		orgs.AssertExpectations(t)
	})

	t.Run("ListBadAreaID", func(t *testing.T) {
		handler := NewOrgHandler(logger, new(MockOrgService))
		router := setupTestRouter(admin)
		router.GET("/departments", handler.ListDepartments)

		req, _ := http.NewRequest(http.MethodGet, "/departments?area_id=youth", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		orgs := new(MockOrgService)
		handler := NewOrgHandler(logger, orgs)
		id := uuid.New()
		orgs.On("DeleteDepartment", mock.Anything, admin, id).Return(nil)

		router := setupTestRouter(admin)
		router.DELETE("/departments/:id", handler.DeleteDepartment)

		req, _ := http.NewRequest(http.MethodDelete, "/departments/"+id.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

func TestOrgHandler_BankAccounts(t *testing.T) {
	logger := newTestLogger()
	admin := access.NewPrincipal(uuid.New(), "admin@example.org", true, nil)

	t.Run("CreateValidationError", func(t *testing.T) {
		orgs := new(MockOrgService)
		handler := NewOrgHandler(logger, orgs)
		orgs.On("CreateBankAccount", mock.Anything, admin, service.CreateBankAccountInput{Name: "Main", Currency: "EURO"}).
			Return(nil, shared.NewValidationError("currency", org.ErrInvalidCurrencyFormat.Error()))

		router := setupTestRouter(admin)
		router.POST("/bank-accounts", handler.CreateBankAccount)

		req, _ := http.NewRequest(http.MethodPost, "/bank-accounts", bytes.NewBufferString(`{"name":"Main","currency":"EURO"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), `"field":"currency"`)
	})

	t.Run("ListAndDelete", func(t *testing.T) {
		orgs := new(MockOrgService)
		handler := NewOrgHandler(logger, orgs)
		id := uuid.New()
		iban := "ES9121000418450200051332"
		orgs.On("ListBankAccounts", mock.Anything, admin).Return([]*org.BankAccount{{ID: id, Name: "Main", IBAN: &iban, Currency: "EUR"}}, nil)
		orgs.On("DeleteBankAccount", mock.Anything, admin, id).
			Return(org.ErrEntityInUse{Entity: "bank account", ID: id, Reason: "an area uses it"})

		router := setupTestRouter(admin)
		router.GET("/bank-accounts", handler.ListBankAccounts)
		router.DELETE("/bank-accounts/:id", handler.DeleteBankAccount)

		req, _ := http.NewRequest(http.MethodGet, "/bank-accounts", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var got []org.BankAccount
		decodeData(t, rr, &got)
		require.Len(t, got, 1)
		assert.Equal(t, iban, *got[0].IBAN)

		req, _ = http.NewRequest(http.MethodDelete, "/bank-accounts/"+id.String(), nil)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		orgs.AssertExpectations(t)
	})
}
