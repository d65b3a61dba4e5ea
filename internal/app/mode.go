package app

import (
	"fmt"
	"strings"
)

// HintMode picks which requester answers oracle questions.
type HintMode string

const (
	HintAuto    HintMode = "auto"
	HintGemini  HintMode = "gemini"
	HintOffline HintMode = "offline"
	HintMock    HintMode = "mock"
)

func parseHintMode(raw string) (HintMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(HintAuto):
		return HintAuto, nil
	case string(HintGemini), "ai":
		return HintGemini, nil
	case string(HintOffline), "local":
		return HintOffline, nil
	case string(HintMock):
		return HintMock, nil
	}
	return "", fmt.Errorf("invalid hint mode %q", raw)
}

// effective resolves auto: dev runs get the deterministic mock.
func (m HintMode) effective(dev bool) HintMode {
	if m == HintAuto && dev {
		return HintMock
	}
	return m
}
