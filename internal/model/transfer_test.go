package model

import (
	"errors"
	"testing"
)

func TestTransferStatusNext(t *testing.T) {
	tests := []struct {
		from    TransferStatus
		action  TransferAction
		want    TransferStatus
		allowed bool
	}{
		{TransferPending, ActionApprove, TransferProcessing, true},
		{TransferPending, ActionComplete, TransferPending, false},
		{TransferPending, ActionCancel, TransferCancelled, true},
		{TransferProcessing, ActionApprove, TransferProcessing, false},
		{TransferProcessing, ActionComplete, TransferCompleted, true},
		{TransferProcessing, ActionCancel, TransferCancelled, true},
		{TransferCompleted, ActionApprove, TransferCompleted, false},
		{TransferCompleted, ActionComplete, TransferCompleted, false},
		{TransferCompleted, ActionCancel, TransferCompleted, false},
		{TransferCancelled, ActionApprove, TransferCancelled, false},
		{TransferCancelled, ActionCancel, TransferCancelled, false},
		{TransferStatus("bogus"), ActionApprove, TransferStatus("bogus"), false},
	}

	for _, tt := range tests {
		got, err := tt.from.Next(tt.action)
		if tt.allowed && err != nil {
			t.Errorf("%s from %s: unexpected error %v", tt.action, tt.from, err)
		}
		if !tt.allowed && !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s from %s: expected ErrInvalidTransition, got %v", tt.action, tt.from, err)
		}
		if got != tt.want {
			t.Errorf("%s from %s = %s, want %s", tt.action, tt.from, got, tt.want)
		}
		if tt.from.Allows(tt.action) != tt.allowed {
			t.Errorf("%s.Allows(%s) = %v, want %v", tt.from, tt.action, !tt.allowed, tt.allowed)
		}
	}
}

func TestTransferStatusTerminal(t *testing.T) {
	if TransferPending.Terminal() || TransferProcessing.Terminal() {
		t.Error("pending and processing must not be terminal")
	}
	if !TransferCompleted.Terminal() || !TransferCancelled.Terminal() {
		t.Error("completed and cancelled must be terminal")
	}
}

func TestTransferPaths(t *testing.T) {
	tr := Transfer{
		SourceSubInventoryName: "Raw",
		SourceLocatorName:      "A-01",
		DestinationLocatorName: "B-02",
	}
	if got := tr.SourcePath(); got != "Raw > A-01" {
		t.Errorf("SourcePath = %q", got)
	}
	if got := tr.DestinationPath(); got != "B-02" {
		t.Errorf("DestinationPath = %q", got)
	}
	if got := (&Transfer{}).SourcePath(); got != "Unknown" {
		t.Errorf("empty SourcePath = %q", got)
	}
}
