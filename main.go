package main

import (
	"fmt"
	"log"

	"frizo/argencoin_engine/internal/bank"
	"frizo/argencoin_engine/internal/common"
	"frizo/argencoin_engine/internal/oracle"
	"frizo/argencoin_engine/internal/staking"
	"frizo/argencoin_engine/internal/token"
)

func main() {
	fmt.Println("Argencoin Engine v1.0.0")
	fmt.Println("Over-collateralized stablecoin engine implemented in Go")

	engine := NewArgencoinEngine()
	if err := engine.Start(); err != nil {
		log.Fatalf("Failed to start argencoin engine: %v", err)
	}
}

// ArgencoinEngine wires the protocol components together
type ArgencoinEngine struct {
	name    string
	version string

	admin     string
	argencoin *token.Token
	dai       *token.Token
	rates     *oracle.RatesOracle
	staking   *staking.Staking
	bank      *bank.CentralBank
}

// NewArgencoinEngine creates a new argencoin engine instance
func NewArgencoinEngine() *ArgencoinEngine {
	return &ArgencoinEngine{
		name:    "Argencoin Engine",
		version: "1.0.0",
		admin:   common.GenerateAccountID("admin"),
	}
}

// Start deploys the protocol with its default parameters:
// 150% collateral ratio, 125% liquidation ratio, 1% minting fee.
func (ae *ArgencoinEngine) Start() error {
	fmt.Printf("Starting %s %s...\n", ae.name, ae.version)

	ae.argencoin = token.New("Argencoin", "ARGC", ae.admin)
	ae.dai = token.New("Dai", "dai", ae.admin)
	ae.rates = oracle.New(ae.admin)
	ae.staking = staking.New(ae.admin, ae.argencoin, nil)

	var err error
	ae.bank, err = bank.New(ae.admin, ae.argencoin, ae.rates, ae.staking.Address(), 15000, 12500, 100)
	if err != nil {
		return err
	}

	if err := ae.argencoin.GrantMinter(ae.admin, ae.bank.Address()); err != nil {
		return err
	}
	if err := ae.bank.AddCollateralToken(ae.admin, "dai", ae.dai); err != nil {
		return err
	}
	if err := ae.staking.AddRewardToken(ae.admin, "dai", ae.dai); err != nil {
		return err
	}
	if err := ae.staking.EditRewardToken(ae.admin, ae.dai); err != nil {
		return err
	}

	fmt.Printf("CentralBank deployed to %s\n", ae.bank.Address())
	fmt.Printf("Staking deployed to %s\n", ae.staking.Address())
	fmt.Println("Engine started successfully!")
	return nil
}
