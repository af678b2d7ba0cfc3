// Package settings defines the tunable platform parameters.
package settings

import "errors"

// ErrMaintenance is returned by engine operations while maintenance mode is on.
var ErrMaintenance = errors.New("platform is under maintenance")

// Platform holds operator-tunable parameters. The zero value is not usable;
// start from Default.
type Platform struct {
	BaseAPY         float64 `json:"baseAPY" yaml:"baseAPY"`
	VIP1Bonus       float64 `json:"vip1Bonus" yaml:"vip1Bonus"`
	VIP2Bonus       float64 `json:"vip2Bonus" yaml:"vip2Bonus"`
	VIP3Bonus       float64 `json:"vip3Bonus" yaml:"vip3Bonus"`
	MinStake        float64 `json:"minStake" yaml:"minStake"`
	MaxStake        float64 `json:"maxStake" yaml:"maxStake"`
	WithdrawalFee   float64 `json:"withdrawalFee" yaml:"withdrawalFee"`
	MaintenanceMode bool    `json:"maintenanceMode" yaml:"maintenanceMode"`
}

// Public is the subset of settings exposed without authentication.
type Public struct {
	BaseAPY   float64 `json:"baseAPY"`
	VIP1Bonus float64 `json:"vip1Bonus"`
	VIP2Bonus float64 `json:"vip2Bonus"`
	VIP3Bonus float64 `json:"vip3Bonus"`
	MinStake  float64 `json:"minStake"`
	MaxStake  float64 `json:"maxStake"`
}

// Default returns the initial platform configuration.
func Default() Platform {
	return Platform{
		BaseAPY:       12.5,
		VIP1Bonus:     0.25,
		VIP2Bonus:     0.5,
		VIP3Bonus:     1.0,
		MinStake:      100,
		MaxStake:      1000000,
		WithdrawalFee: 0.5,
	}
}

// Public projects the unauthenticated view.
func (p Platform) Public() Public {
	return Public{
		BaseAPY:   p.BaseAPY,
		VIP1Bonus: p.VIP1Bonus,
		VIP2Bonus: p.VIP2Bonus,
		VIP3Bonus: p.VIP3Bonus,
		MinStake:  p.MinStake,
		MaxStake:  p.MaxStake,
	}
}

// Patch holds a partial update. Nil fields keep their current value.
type Patch struct {
	BaseAPY         *float64 `json:"baseAPY"`
	VIP1Bonus       *float64 `json:"vip1Bonus"`
	VIP2Bonus       *float64 `json:"vip2Bonus"`
	VIP3Bonus       *float64 `json:"vip3Bonus"`
	MinStake        *float64 `json:"minStake"`
	MaxStake        *float64 `json:"maxStake"`
	WithdrawalFee   *float64 `json:"withdrawalFee"`
	MaintenanceMode *bool    `json:"maintenanceMode"`
}

// Apply merges the patch into the settings.
func (p Platform) Apply(patch Patch) Platform {
	if patch.BaseAPY != nil {
		p.BaseAPY = *patch.BaseAPY
	}
	if patch.VIP1Bonus != nil {
		p.VIP1Bonus = *patch.VIP1Bonus
	}
	if patch.VIP2Bonus != nil {
		p.VIP2Bonus = *patch.VIP2Bonus
	}
	if patch.VIP3Bonus != nil {
		p.VIP3Bonus = *patch.VIP3Bonus
	}
	if patch.MinStake != nil {
		p.MinStake = *patch.MinStake
	}
	if patch.MaxStake != nil {
		p.MaxStake = *patch.MaxStake
	}
	if patch.WithdrawalFee != nil {
		p.WithdrawalFee = *patch.WithdrawalFee
	}
	if patch.MaintenanceMode != nil {
		p.MaintenanceMode = *patch.MaintenanceMode
	}
	return p
}
