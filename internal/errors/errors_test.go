package errors

import (
	"fmt"
	"testing"
)

func TestIsCollision(t *testing.T) {
	err := NewCollision("/out/model_data_003.parquet")
	if !IsCollision(err) {
		t.Error("NewCollision should classify as collision")
	}
	if !IsCollision(Wrap(err, "flush bucket 3")) {
		t.Error("wrapping should preserve classification")
	}
	if IsCollision(ErrBucketMissing) {
		t.Error("unrelated error classified as collision")
	}
}

func TestIsNoReporters(t *testing.T) {
	if !IsNoReporters(ErrNoModelReporters) || !IsNoReporters(ErrNoAgentReporters) {
		t.Error("reporter sentinels should classify")
	}
	if IsNoReporters(ErrPathCollision) {
		t.Error("unrelated error classified as no-reporters")
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(NewMissingField("output_dir")) {
		t.Error("missing field should classify as validation")
	}
	if !IsValidation(NewInvalidValue("sample_rate", -1, "must be positive")) {
		t.Error("invalid value should classify as validation")
	}
	if !IsValidation(NewValidation("mode", "unknown")) {
		t.Error("NewValidation should classify as validation")
	}
}

func TestIsReplayMiss(t *testing.T) {
	if !IsReplayMiss(Wrapf(ErrBucketMissing, "bucket %d", 4)) {
		t.Error("missing bucket should classify as replay miss")
	}
	if !IsReplayMiss(ErrStepNotCached) {
		t.Error("uncached step should classify as replay miss")
	}
	// A step skipped by the sample rate is a caller mistake, not a miss.
	if IsReplayMiss(ErrStepNotSampled) {
		t.Error("unsampled step should not classify as replay miss")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
}

func TestWrapMessage(t *testing.T) {
	err := Wrapf(ErrPathCollision, "bucket %d", 7)
	want := fmt.Sprintf("bucket 7: %v", ErrPathCollision)
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}
