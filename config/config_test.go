package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/go-ddd-library/config"
)

func Test_Load_Defaults(t *testing.T) {
	// arrange
	for _, k := range []string{"STORE_DRIVER", "LOAN_DAYS", "LOAN_MAX_ACTIVE", "LOAN_APPROVAL_WORKFLOW", "LOAN_ENFORCE_LIMITS", "JWT_ACCESS_TTL"} {
		t.Setenv(k, "")
	}

	// act
	cfg := config.Load()

	// assert
	assert.Equal(t, config.StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 14, cfg.LoanDays)
	assert.Equal(t, 3, cfg.LoanMaxActive)
	assert.False(t, cfg.LoanApprovalWorkflow)
	assert.True(t, cfg.LoanEnforceLimits)
	assert.Equal(t, time.Hour, cfg.AccessTTL)
}

func Test_Load_Overrides(t *testing.T) {
	// arrange
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("LOAN_DAYS", "7")
	t.Setenv("LOAN_APPROVAL_WORKFLOW", "true")
	t.Setenv("LOAN_MAX_ACTIVE", "not-a-number")

	// act
	cfg := config.Load()

	// assert
	assert.Equal(t, config.StoreRedis, cfg.StoreDriver)
	assert.Equal(t, 7, cfg.LoanDays)
	assert.True(t, cfg.LoanApprovalWorkflow)
	assert.Equal(t, 3, cfg.LoanMaxActive, "invalid ints fall back to the default")
}

func Test_Config_CSVLists(t *testing.T) {
	// arrange
	cfg := &config.Config{
		CORSAllowedOrigins: " http://a.test, ,http://b.test",
		ElasticsearchAddrs: "",
	}

	// act & assert
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	assert.Empty(t, cfg.ESAddrs())
}
