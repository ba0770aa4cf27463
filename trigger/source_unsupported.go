//go:build !linux && !darwin && !windows

package trigger

import (
	"context"
	"errors"
)

var errNoSource = errors.New("no input event source on this platform")

type nullSource struct{ events chan Event }

func NewSource(Config) Source { return &nullSource{events: make(chan Event)} }

func (n *nullSource) Start(context.Context) error { return errNoSource }
func (n *nullSource) Events() <-chan Event        { return n.events }
func (n *nullSource) Close()                      {}

func Diagnose(Config) (string, error) { return "", errNoSource }
