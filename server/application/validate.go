package application

import (
	"errors"
	"fmt"

	"github.com/jhaladik/christmas-hunt-game/utils"
)

var ErrInvalidPayload = errors.New("invalid payload")

// Validator rejects inbound requests that no engine should see.
type Validator interface {
	Move(MoveRequest) error
	Throw(ThrowSnowballRequest) error
	Collect(id string) error
}

// SimpleValidator provides the minimal checks every request needs.
type SimpleValidator struct{}

func (SimpleValidator) Move(req MoveRequest) error {
	if !utils.Finite(req.DX, req.DY) {
		return fmt.Errorf("%w: direction (%v, %v)", ErrInvalidPayload, req.DX, req.DY)
	}
	return nil
}

func (SimpleValidator) Throw(req ThrowSnowballRequest) error {
	if !utils.Finite(req.TargetX, req.TargetY) {
		return fmt.Errorf("%w: target (%v, %v)", ErrInvalidPayload, req.TargetX, req.TargetY)
	}
	return nil
}

func (SimpleValidator) Collect(id string) error {
	if id == "" {
		return fmt.Errorf("%w: pickup id is required", ErrInvalidPayload)
	}
	return nil
}
