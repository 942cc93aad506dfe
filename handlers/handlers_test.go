package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/anurag-05-cmd/StakeInNature/models"
	"github.com/anurag-05-cmd/StakeInNature/pkg/units"
	"github.com/anurag-05-cmd/StakeInNature/services"
)

// stubLedger is a minimal in-memory services.Ledger for handler tests.
type stubLedger struct {
	mu        sync.Mutex
	token     map[common.Address]*big.Int
	staked    map[common.Address]*big.Int
	validated map[common.Address]bool

	mintCalls  int
	stakeCalls int
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		token:     make(map[common.Address]*big.Int),
		staked:    make(map[common.Address]*big.Int),
		validated: make(map[common.Address]bool),
	}
}

func (s *stubLedger) get(m map[common.Address]*big.Int, user common.Address) *big.Int {
	if v, exists := m[user]; exists {
		return new(big.Int).Set(v)
	}
	return big.NewInt(0)
}

func (s *stubLedger) GetStakedBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(s.staked, user), nil
}

func (s *stubLedger) GetTokenBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(s.token, user), nil
}

func (s *stubLedger) IsValidated(ctx context.Context, user common.Address) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validated[user], nil
}

func (s *stubLedger) Stake(ctx context.Context, amount *big.Int) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stakeCalls++
	return common.HexToHash("0x01"), nil
}

func (s *stubLedger) Unstake(ctx context.Context, amount *big.Int) (common.Hash, error) {
	return common.HexToHash("0x02"), nil
}

func (s *stubLedger) UnstakeAll(ctx context.Context) (common.Hash, error) {
	return common.HexToHash("0x03"), nil
}

func (s *stubLedger) ValidateUser(ctx context.Context, user common.Address) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validated[user] = true
	return common.HexToHash("0x04"), nil
}

func (s *stubLedger) SlashUser(ctx context.Context, user common.Address) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staked[user] = big.NewInt(0)
	return common.HexToHash("0x05"), nil
}

func (s *stubLedger) Mint(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mintCalls++
	balance := s.get(s.token, to)
	s.token[to] = balance.Add(balance, amount)
	return common.HexToHash("0x06"), nil
}

type stubScorer struct {
	score *models.Score
}

func (s *stubScorer) Score(ctx context.Context, image []byte, mimeType string) (*models.Score, error) {
	return s.score, nil
}

type fixture struct {
	router *gin.Engine
	ledger *stubLedger
	locks  *services.AccountLocks
}

func newFixture(t *testing.T, score *models.Score) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ledger := newStubLedger()
	locks := services.NewAccountLocks()
	sessions := services.NewSessionService(ledger, 3*time.Second)
	claimService := services.NewClaimService(ledger, locks)
	validationService := services.NewValidationService(&stubScorer{score: score}, ledger, sessions, locks)

	router := gin.New()
	router.POST("/claim", NewClaimHandler(claimService).Claim)
	router.POST("/evidence", NewEvidenceHandler(validationService).Submit)
	router.POST("/ledger", NewLedgerHandler(ledger, sessions, locks).Handle)

	return &fixture{router: router, ledger: ledger, locks: locks}
}

func (f *fixture) postJSON(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func (f *fixture) postEvidence(t *testing.T, userAddress string, image []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if image != nil {
		part, err := writer.CreateFormFile("image", "evidence.jpg")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	if userAddress != "" {
		require.NoError(t, writer.WriteField("userAddress", userAddress))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/evidence", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func mustStake(f *fixture, addr string, amount string) {
	f.ledger.mu.Lock()
	defer f.ledger.mu.Unlock()
	f.ledger.staked[common.HexToAddress(addr)] = units.MustParse(amount)
}
