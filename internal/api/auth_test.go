package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"expense_tracker/internal/domain"
	"expense_tracker/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// AuthTestSuite provides a test suite for registration and token endpoints
type AuthTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

// SetupTest runs before each test
func (suite *AuthTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(suite.T(), err, "failed to open test database")
	require.NoError(suite.T(), db.AutoMigrate(&domain.User{}, &domain.ExpenseIncome{}))
	suite.db = db

	suite.router = gin.New()
	SetupRouter(suite.router, db, nil, testJWTSecret)
}

// doJSON performs a request against the test router
func (suite *AuthTestSuite) doJSON(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AuthTestSuite) TestRegister() {
	w := suite.doJSON(http.MethodPost, "/auth/register", gin.H{
		"username": "Carol",
		"password": "supersecret",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(suite.T(), w.Body.String(), "supersecret", "password never returned")

	// Username stored lowercase
	var user domain.User
	require.NoError(suite.T(), suite.db.Where("username = ?", "carol").First(&user).Error)
	assert.Equal(suite.T(), domain.RoleUser, user.Role, "registration never grants staff")
	assert.NotEqual(suite.T(), "supersecret", user.Password, "password stored hashed")
}

func (suite *AuthTestSuite) TestRegisterDuplicate() {
	w := suite.doJSON(http.MethodPost, "/auth/register", gin.H{"username": "carol", "password": "supersecret"})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	// Same name, different case
	w = suite.doJSON(http.MethodPost, "/auth/register", gin.H{"username": "CAROL", "password": "supersecret"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *AuthTestSuite) TestRegisterValidation() {
	// Non-alphanumeric username
	w := suite.doJSON(http.MethodPost, "/auth/register", gin.H{"username": "bad name!", "password": "supersecret"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	// Short password
	w = suite.doJSON(http.MethodPost, "/auth/register", gin.H{"username": "carol", "password": "short"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	// Missing fields
	w = suite.doJSON(http.MethodPost, "/auth/register", gin.H{"username": "carol"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *AuthTestSuite) TestLoginIssuesWorkingTokenPair() {
	w := suite.doJSON(http.MethodPost, "/auth/register", gin.H{"username": "carol", "password": "supersecret"})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.doJSON(http.MethodPost, "/auth/login", gin.H{"username": "carol", "password": "supersecret"})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var pair utils.TokenPair
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &pair))
	require.NotEmpty(suite.T(), pair.Access)
	require.NotEmpty(suite.T(), pair.Refresh)

	// The access token works on a protected route
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
}

func (suite *AuthTestSuite) TestLoginWrongPassword() {
	w := suite.doJSON(http.MethodPost, "/auth/register", gin.H{"username": "carol", "password": "supersecret"})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.doJSON(http.MethodPost, "/auth/login", gin.H{"username": "carol", "password": "wrongpassword"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w = suite.doJSON(http.MethodPost, "/auth/login", gin.H{"username": "nobody", "password": "supersecret"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *AuthTestSuite) TestRefresh() {
	w := suite.doJSON(http.MethodPost, "/auth/register", gin.H{"username": "carol", "password": "supersecret"})
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	w = suite.doJSON(http.MethodPost, "/auth/login", gin.H{"username": "carol", "password": "supersecret"})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var pair utils.TokenPair
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &pair))

	// Exchange the refresh token for a new pair
	w = suite.doJSON(http.MethodPost, "/auth/refresh", gin.H{"refresh": pair.Refresh})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var fresh utils.TokenPair
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &fresh))
	require.NotEmpty(suite.T(), fresh.Access)

	// The new access token works and carries the same identity
	claims, err := utils.ParseToken(fresh.Access, testJWTSecret, utils.TokenAccess)
	require.NoError(suite.T(), err)
	origClaims, err := utils.ParseToken(pair.Access, testJWTSecret, utils.TokenAccess)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), origClaims.UserID, claims.UserID)
}

func (suite *AuthTestSuite) TestRefreshRejectsAccessToken() {
	w := suite.doJSON(http.MethodPost, "/auth/register", gin.H{"username": "carol", "password": "supersecret"})
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	w = suite.doJSON(http.MethodPost, "/auth/login", gin.H{"username": "carol", "password": "supersecret"})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var pair utils.TokenPair
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &pair))

	// An access token is not valid at the refresh endpoint
	w = suite.doJSON(http.MethodPost, "/auth/refresh", gin.H{"refresh": pair.Access})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}
