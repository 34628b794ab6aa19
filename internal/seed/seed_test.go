package seed

import (
	"context"
	"strings"
	"testing"

	"kolboard/internal/models"
	"kolboard/internal/testutil"
)

func TestDemoFixture_Parses(t *testing.T) {
	f, err := DemoFixture()
	if err != nil {
		t.Fatalf("demo fixture: %v", err)
	}
	if len(f.Users) == 0 || len(f.Tickers) == 0 || len(f.KOLs) == 0 {
		t.Fatalf("demo fixture is missing sections: %+v", f)
	}
}

func TestParseFixture_RejectsUnknownFollowTarget(t *testing.T) {
	_, err := ParseFixture([]byte("users:\n  - username: a\n    follows: [ghost]\n"))
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("expected unknown follow error, got %v", err)
	}
}

func TestParseFixture_RejectsBadID(t *testing.T) {
	if _, err := ParseFixture([]byte("users:\n  - username: a\n    id: nope\n")); err == nil {
		t.Fatal("expected invalid id error")
	}
}

func TestFixturePosition_OptionFields(t *testing.T) {
	p := FixturePosition{
		Symbol: "aapl 250117c00200000", Units: "2", Price: "4.15", AverageCost: "3.20",
		OptionType: "call", Strike: "200", Expiration: "2025-01-17", Underlying: "aapl",
	}
	pos, err := p.model(FixtureUser{Username: "x"}.userID())
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	if pos.Kind != models.PositionOption || pos.OptionType != "CALL" || pos.Underlying != "AAPL" {
		t.Fatalf("unexpected option position: %+v", pos)
	}
	if pos.Strike == nil || pos.Strike.String() != "200" || pos.Expiration == nil {
		t.Fatalf("missing strike or expiration: %+v", pos)
	}

	p.Units = "two"
	if _, err := p.model(FixtureUser{Username: "x"}.userID()); err == nil {
		t.Fatal("expected units parse error")
	}
}

func TestApplyFixture_IsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	fixture, err := DemoFixture()
	if err != nil {
		t.Fatalf("demo fixture: %v", err)
	}

	s := NewSeeder(db, Options{Seed: 42})
	for run := 0; run < 2; run++ {
		if _, err := s.ApplyFixture(ctx, fixture); err != nil {
			t.Fatalf("apply fixture (run %d): %v", run, err)
		}
	}

	var demo models.User
	if err := db.Where("username = ?", "demo").First(&demo).Error; err != nil {
		t.Fatalf("load demo user: %v", err)
	}
	if demo.FollowerCount != 1 || demo.FollowingCount != 2 {
		t.Fatalf("unexpected demo counters: followers=%d following=%d", demo.FollowerCount, demo.FollowingCount)
	}

	var stat models.KOLStat
	if err := db.Where("platform = ? AND kol_id = ?", "twitter", "elonmusk").First(&stat).Error; err != nil {
		t.Fatalf("load kol stat: %v", err)
	}
	if stat.TrackerCount != 2 {
		t.Fatalf("expected 2 trackers, got %d", stat.TrackerCount)
	}

	var positions int64
	if err := db.Model(&models.Position{}).Where("user_id = ?", demo.ID).Count(&positions).Error; err != nil {
		t.Fatalf("count positions: %v", err)
	}
	if positions != 3 {
		t.Fatalf("expected 3 demo positions, got %d", positions)
	}

	var conn models.SnapTradeConnection
	if err := db.First(&conn, "user_id = ?", demo.ID).Error; err != nil {
		t.Fatalf("load connection: %v", err)
	}
	if conn.LastSyncedAt == nil {
		t.Fatal("expected demo portfolio to be marked synced")
	}
}

func TestRun_SeedsCommunityAndClears(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	fixture, err := DemoFixture()
	if err != nil {
		t.Fatalf("demo fixture: %v", err)
	}

	opts := Options{Community: 8, Seed: 7}
	s := NewSeeder(db, opts)
	if err := s.Run(ctx, fixture, opts); err != nil {
		t.Fatalf("run: %v", err)
	}

	var users int64
	db.Model(&models.User{}).Count(&users)
	if users != int64(len(fixture.Users)+opts.Community) {
		t.Fatalf("expected %d users, got %d", len(fixture.Users)+opts.Community, users)
	}

	var follows int64
	db.Model(&models.Follow{}).Count(&follows)
	var followers int64
	db.Model(&models.User{}).Select("COALESCE(SUM(follower_count), 0)").Scan(&followers)
	if follows != followers {
		t.Fatalf("follower counters (%d) drifted from follow rows (%d)", followers, follows)
	}

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	db.Model(&models.User{}).Count(&users)
	if users != 0 {
		t.Fatalf("expected empty users table, got %d", users)
	}
}

func TestBuildUser_Overrides(t *testing.T) {
	f := NewFactory(testutil.NewTestDB(t), 1)
	u := f.BuildUser(func(u *models.User) { u.Username = "fixed" })
	if u.Username != "fixed" || u.DisplayName == "" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.MembershipTier == "" {
		t.Fatal("expected a membership tier")
	}
}
