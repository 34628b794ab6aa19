package seed

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"kolboard/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yml
var demoFixture []byte

// Fixture is the YAML document describing demo users and the pools generated
// users draw from.
type Fixture struct {
	Users   []FixtureUser `yaml:"users"`
	Tickers []string      `yaml:"tickers"`
	KOLs    []FixtureKOL  `yaml:"kols"`
}

type FixtureUser struct {
	ID             string           `yaml:"id"`
	Username       string           `yaml:"username"`
	DisplayName    string           `yaml:"display_name"`
	Bio            string           `yaml:"bio"`
	Tier           string           `yaml:"tier"`
	HoldingsPublic bool             `yaml:"holdings_public"`
	Follows        []string         `yaml:"follows"`
	TrackKOLs      []FixtureKOL     `yaml:"track_kols"`
	TrackStocks    []string         `yaml:"track_stocks"`
	Accounts       []FixtureAccount `yaml:"accounts"`
}

type FixtureKOL struct {
	Platform string `yaml:"platform"`
	KOLID    string `yaml:"kol_id"`
	Username string `yaml:"username"`
}

type FixtureAccount struct {
	ID          string            `yaml:"id"`
	Institution string            `yaml:"institution"`
	Name        string            `yaml:"name"`
	Number      string            `yaml:"number"`
	Currency    string            `yaml:"currency"`
	Positions   []FixturePosition `yaml:"positions"`
}

// FixturePosition keeps money as strings so YAML floats never round.
type FixturePosition struct {
	Symbol      string `yaml:"symbol"`
	Description string `yaml:"description"`
	Units       string `yaml:"units"`
	Price       string `yaml:"price"`
	AverageCost string `yaml:"average_cost"`
	OptionType  string `yaml:"option_type"`
	Strike      string `yaml:"strike"`
	Expiration  string `yaml:"expiration"`
	Underlying  string `yaml:"underlying"`
}

// DemoFixture returns the built-in fixture.
func DemoFixture() (*Fixture, error) {
	return ParseFixture(demoFixture)
}

// LoadFixture reads a fixture file from disk.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	names := make(map[string]bool, len(f.Users))
	for _, u := range f.Users {
		if u.Username == "" {
			return fmt.Errorf("fixture user without username")
		}
		if u.ID != "" {
			if _, err := uuid.Parse(u.ID); err != nil {
				return fmt.Errorf("fixture user %s: invalid id: %w", u.Username, err)
			}
		}
		names[strings.ToLower(u.Username)] = true
	}
	for _, u := range f.Users {
		for _, target := range u.Follows {
			if !names[strings.ToLower(target)] {
				return fmt.Errorf("fixture user %s follows unknown user %s", u.Username, target)
			}
		}
	}
	return nil
}

func (u FixtureUser) userID() uuid.UUID {
	if id, err := uuid.Parse(u.ID); err == nil {
		return id
	}
	// Stable id so re-running a fixture without ids stays idempotent.
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("kolboard-seed:"+strings.ToLower(u.Username)))
}

func (u FixtureUser) model() *models.User {
	tier := models.MembershipTier(strings.ToLower(u.Tier))
	if tier == "" {
		tier = models.TierFree
	}
	display := u.DisplayName
	if display == "" {
		display = u.Username
	}
	return &models.User{
		ID:             u.userID(),
		Username:       u.Username,
		DisplayName:    display,
		Bio:            u.Bio,
		Theme:          models.ThemeSystem,
		MembershipTier: tier,
		NotifyEmail:    true,
		NotifyKOLPosts: true,
	}
}

func (a FixtureAccount) model(userID uuid.UUID) (models.BrokerageAccount, error) {
	currency := strings.ToUpper(a.Currency)
	if currency == "" {
		currency = "USD"
	}
	acct := models.BrokerageAccount{
		UserID:       userID,
		ExternalID:   a.ID,
		Institution:  a.Institution,
		Name:         a.Name,
		NumberMasked: maskNumber(a.Number),
		Currency:     currency,
	}
	total := decimal.Zero
	for _, p := range a.Positions {
		pos, err := p.model(userID)
		if err != nil {
			return acct, fmt.Errorf("account %s: %w", a.ID, err)
		}
		mult := decimal.NewFromInt(1)
		if pos.Kind == models.PositionOption {
			mult = decimal.NewFromInt(models.OptionContractMultiplier)
		}
		total = total.Add(pos.Units.Mul(pos.Price).Mul(mult))
		acct.Positions = append(acct.Positions, pos)
	}
	acct.TotalValue = total
	return acct, nil
}

func (p FixturePosition) model(userID uuid.UUID) (models.Position, error) {
	pos := models.Position{
		UserID:      userID,
		Symbol:      strings.ToUpper(p.Symbol),
		Description: p.Description,
		Kind:        models.PositionEquity,
	}
	var err error
	if pos.Units, err = decimal.NewFromString(p.Units); err != nil {
		return pos, fmt.Errorf("%s units: %w", p.Symbol, err)
	}
	if pos.Price, err = decimal.NewFromString(p.Price); err != nil {
		return pos, fmt.Errorf("%s price: %w", p.Symbol, err)
	}
	if pos.AverageCost, err = decimal.NewFromString(p.AverageCost); err != nil {
		return pos, fmt.Errorf("%s average_cost: %w", p.Symbol, err)
	}
	if p.OptionType == "" {
		return pos, nil
	}

	pos.Kind = models.PositionOption
	pos.OptionType = strings.ToUpper(p.OptionType)
	pos.Underlying = strings.ToUpper(p.Underlying)
	if p.Strike != "" {
		strike, err := decimal.NewFromString(p.Strike)
		if err != nil {
			return pos, fmt.Errorf("%s strike: %w", p.Symbol, err)
		}
		pos.Strike = &strike
	}
	if p.Expiration != "" {
		exp, err := time.Parse(time.DateOnly, p.Expiration)
		if err != nil {
			return pos, fmt.Errorf("%s expiration: %w", p.Symbol, err)
		}
		pos.Expiration = &exp
	}
	return pos, nil
}

func maskNumber(n string) string {
	n = strings.TrimSpace(n)
	if len(n) <= 4 {
		return n
	}
	return "****" + n[len(n)-4:]
}
