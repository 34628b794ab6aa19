package bootstrap

import (
	"context"
	"testing"

	"kolboard/internal/config"
	"kolboard/internal/models"
	"kolboard/internal/testutil"
)

func TestEnsureDemoAccounts(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		env  string
		opts Options
		want int64
	}{
		{"disabled", "development", Options{}, 0},
		{"outside development", "staging", Options{SeedDemo: true}, 0},
		{"development", "development", Options{SeedDemo: true}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewTestDB(t)
			if err := ensureDemoAccounts(ctx, &config.Config{Env: tt.env}, db, tt.opts); err != nil {
				t.Fatalf("ensure demo accounts: %v", err)
			}
			var users int64
			db.Model(&models.User{}).Count(&users)
			if users != tt.want {
				t.Fatalf("expected %d users, got %d", tt.want, users)
			}
		})
	}
}
