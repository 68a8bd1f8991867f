package handlers

import (
	"net/http"

	"github.com/delorean-quant/delorean/internal/strategyconfig"
	"github.com/delorean-quant/delorean/pkg/logger"
)

// StrategyHandler exposes the active strategy configuration so clients
// can tell which parameters produced the artifacts they are reading.
type StrategyHandler struct {
	cfg    *strategyconfig.Config
	hash   string
	logger *logger.Logger
}

func NewStrategyHandler(cfg *strategyconfig.Config, hash string, log *logger.Logger) *StrategyHandler {
	return &StrategyHandler{cfg: cfg, hash: hash, logger: log}
}

// GetConfig returns the active configuration and its hash.
// GET /api/strategy/config
func (h *StrategyHandler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"config_hash": h.hash,
		"config":      h.cfg,
	})
}
