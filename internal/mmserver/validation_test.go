package mmserver

import (
	"testing"

	"github.com/mmstream/mm/internal/proto"
)

func TestValidateResolution(t *testing.T) {
	if _, _, err := validateResolution(1920, 1080); err != nil {
		t.Fatalf("1920x1080 should be valid: %v", err)
	}
	if _, _, err := validateResolution(0, 1080); err == nil {
		t.Fatal("zero width should be rejected")
	}
	if _, _, err := validateResolution(1921, 1080); err == nil {
		t.Fatal("odd width should be rejected")
	}
}

func TestValidateFramerateMHz(t *testing.T) {
	if _, err := validateFramerateMHz(60000); err != nil {
		t.Fatalf("60Hz should be supported: %v", err)
	}
	if _, err := validateFramerateMHz(30000); err != nil {
		t.Fatalf("30Hz should be supported: %v", err)
	}
	if _, err := validateFramerateMHz(120000); err == nil {
		t.Fatal("120Hz should be unsupported")
	}
}

func TestValidateVideoCodecDefaultsUnknownToH265(t *testing.T) {
	codec, err := validateVideoCodec("")
	if err != nil || codec != "h265" {
		t.Fatalf("codec=%q err=%v, want h265/nil", codec, err)
	}
}

func TestValidateVideoCodecRejectsUnrecognized(t *testing.T) {
	if _, err := validateVideoCodec("mpeg2"); err == nil {
		t.Fatal("unrecognized codec should be rejected")
	}
}

func TestValidateSampleRateDefaultsZeroTo48k(t *testing.T) {
	rate, err := validateSampleRate(0)
	if err != nil || rate != 48000 {
		t.Fatalf("rate=%d err=%v, want 48000/nil", rate, err)
	}
}

func TestValidateSampleRateRejectsOutOfRange(t *testing.T) {
	if _, err := validateSampleRate(8000); err == nil {
		t.Fatal("8kHz should be rejected as too low")
	}
	if _, err := validateSampleRate(96000); err == nil {
		t.Fatal("96kHz should be rejected as too high")
	}
}

func TestValidateChannelsDefaultsZeroToStereo(t *testing.T) {
	ch, err := validateChannels(0)
	if err != nil || ch != 2 {
		t.Fatalf("ch=%d err=%v, want 2/nil", ch, err)
	}
}

func TestValidateChannelsRejectsSurround(t *testing.T) {
	if _, err := validateChannels(6); err == nil {
		t.Fatal("6-channel audio should be unsupported")
	}
}

func TestValidateAttachFull(t *testing.T) {
	att := &proto.Attach{
		SessionID:    1,
		VideoCodec:   "h264",
		VideoProfile: "main",
		Width:        1920,
		Height:       1080,
		FramerateMHz: 60000,
		AudioCodec:   "opus",
		SampleRateHz: 48000,
		Channels:     2,
	}
	v, a, err := validateAttach(att)
	if err != nil {
		t.Fatalf("validateAttach: %v", err)
	}
	if v.width != 1920 || v.height != 1080 || v.codec != "h264" || v.profile != "main" {
		t.Fatalf("unexpected video params: %+v", v)
	}
	if a.sampleRate != 48000 || a.channels != 2 || a.codec != "opus" {
		t.Fatalf("unexpected audio params: %+v", a)
	}
}

func TestErrorCodeDistinguishesAttachmentFromSession(t *testing.T) {
	err := unsupported("unsupported framerate")
	if code := errorCode(err, true); code != proto.ErrCodeAttachmentParamsNotSupported {
		t.Fatalf("attachment errorCode = %v, want ErrCodeAttachmentParamsNotSupported", code)
	}
	if code := errorCode(err, false); code != proto.ErrCodeSessionParamsNotSupported {
		t.Fatalf("session errorCode = %v, want ErrCodeSessionParamsNotSupported", code)
	}
}
