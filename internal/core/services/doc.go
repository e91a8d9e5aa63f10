// Package services implements the driving port interfaces.
// Services contain the core recommendation logic and orchestrate
// calls to driven ports (adapters).
//
// Services have no CGO dependencies; they only touch adapters through ports.
package services
