package avrerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestConnErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewConnError(ConnectFailed, cause)
	want := "could not connect to AVR: dial tcp: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestConnErrorMessageWithoutCause(t *testing.T) {
	err := NewConnError(AlreadyConnected, nil)
	if err.Error() != "already connected" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestIsUnavailableMatchesDirectly(t *testing.T) {
	err := NewConnError(Unavailable, nil)
	if !IsUnavailable(err) {
		t.Error("expected IsUnavailable to match a direct Unavailable ConnError")
	}
}

func TestIsUnavailableUnwrapsThroughWrapping(t *testing.T) {
	inner := NewConnError(Unavailable, nil)
	wrapped := fmt.Errorf("dispatch failed: %w", inner)
	if !IsUnavailable(wrapped) {
		t.Error("expected IsUnavailable to unwrap through fmt.Errorf %w wrapping")
	}
}

func TestIsUnavailableFalseForOtherKinds(t *testing.T) {
	err := NewConnError(ConnectTimeout, nil)
	if IsUnavailable(err) {
		t.Error("expected IsUnavailable to be false for a non-Unavailable kind")
	}
}

func TestIsUnavailableFalseForUnrelatedError(t *testing.T) {
	if IsUnavailable(errors.New("boom")) {
		t.Error("expected IsUnavailable to be false for an unrelated error")
	}
}

func TestWireSentinelMessageKnownAndUnknown(t *testing.T) {
	if got := WireSentinelMessage("E04"); got != "unknown command" {
		t.Errorf("WireSentinelMessage(E04) = %q", got)
	}
	if got := WireSentinelMessage("E04invalid"); got != "unknown command" {
		t.Errorf("expected sentinel lookup to truncate to 3 chars, got %q", got)
	}
	if got := WireSentinelMessage("XYZ"); got != "" {
		t.Errorf("expected an empty string for an unrecognised sentinel, got %q", got)
	}
}

func TestCommandErrorMessages(t *testing.T) {
	cases := []struct {
		err  *CommandError
		want string
	}{
		{NewUnknownCommand("set_volume", "Z1"), `unknown command "set_volume" for zone Z1`},
		{NewUnknownLocalCommand("_foo"), `unknown local command "_foo"`},
		{NewResponseTimeout("query_power"), `timed out waiting for response to "query_power"`},
		{NewCommandResponseError("set_volume", "E06123"), "set_volume: invalid parameter (E06123)"},
		{NewCommandResponseError("set_volume", "E99"), "set_volume: command response error (E99)"},
		{NewCommandUnavailable("query_zones", "main zone did not respond"), "query_zones unavailable: main zone did not respond"},
		{NewLocalCommandError("basic_query", "boom"), "basic_query: boom"},
	}
	for _, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Errorf("Error() = %q, want %q", got, c.want)
		}
	}
}

func TestDecodeErrorUnwrapsAndFormats(t *testing.T) {
	cause := errors.New("bad code")
	err := NewDecodeError("PWR9", cause)
	if err.Error() != `failed to decode response "PWR9": bad code` {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}
