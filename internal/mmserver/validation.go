package mmserver

import (
	"fmt"

	"github.com/mmstream/mm/internal/proto"
)

// validationError distinguishes a malformed request from one that's
// well-formed but asks for something this server build doesn't support
// (spec §4.F's ValidationError::{Invalid,NotSupported}, grounded on
// mm-server/src/server/handlers/validation.rs).
type validationError struct {
	unsupported bool
	text        string
}

func (e *validationError) Error() string { return e.text }

func invalid(text string) error              { return &validationError{text: text} }
func unsupported(text string) error           { return &validationError{unsupported: true, text: text} }

// errorCode maps a validationError to the wire ErrorCode it should produce,
// with attach requests using a distinct "not supported" code from
// UpdateSession/LaunchSession requests (validation.rs's
// send_validation_error is_attachment parameter).
func errorCode(err error, isAttachment bool) proto.ErrorCode {
	ve, ok := err.(*validationError)
	if !ok {
		return proto.ErrCodeProtocol
	}
	if !ve.unsupported {
		return proto.ErrCodeProtocol
	}
	if isAttachment {
		return proto.ErrCodeAttachmentParamsNotSupported
	}
	return proto.ErrCodeSessionParamsNotSupported
}

// videoStreamParams and audioStreamParams are the validated, defaulted
// result of an Attach request (spec §4.F step 1).
type videoStreamParams struct {
	width, height uint32
	codec         string
	profile       string
}

type audioStreamParams struct {
	sampleRate uint32
	channels   uint32
	codec      string
}

func validateResolution(width, height uint32) (uint32, uint32, error) {
	if width != 0 && height != 0 && width%2 == 0 && height%2 == 0 {
		return width, height, nil
	}
	return 0, 0, invalid("resolution must be non-zero and even")
}

// validateFramerateMHz accepts only the two framerates the compositor is
// known to support, expressed in milli-hertz to match DisplayParams'
// RefreshRateMHz field.
func validateFramerateMHz(mhz uint32) (uint32, error) {
	switch mhz {
	case 60000, 30000:
		return mhz, nil
	default:
		return 0, unsupported("unsupported framerate")
	}
}

func validateVideoCodec(codec string) (string, error) {
	switch codec {
	case "":
		return "h265", nil // Unknown defaults to h265, as upstream does.
	case "h264", "h265", "av1":
		return codec, nil
	default:
		return "", invalid(fmt.Sprintf("invalid video codec %q", codec))
	}
}

func validateAudioCodec(codec string) (string, error) {
	switch codec {
	case "":
		return "opus", nil
	case "opus", "pcm":
		return codec, nil
	default:
		return "", invalid(fmt.Sprintf("invalid audio codec %q", codec))
	}
}

func validateSampleRate(rate uint32) (uint32, error) {
	if rate == 0 {
		return 48000, nil
	}
	if rate < 16000 || rate > 48000 {
		return 0, invalid("invalid sample rate")
	}
	return rate, nil
}

func validateChannels(channels uint32) (uint32, error) {
	if channels == 0 {
		return 2, nil // Default to stereo.
	}
	if channels != 2 {
		return 0, unsupported("unsupported number of channels")
	}
	return channels, nil
}

// validateAttach validates and defaults an Attach request's media
// parameters (spec §4.F step 1, "validate_attachment").
func validateAttach(att *proto.Attach) (videoStreamParams, audioStreamParams, error) {
	width, height, err := validateResolution(att.Width, att.Height)
	if err != nil {
		return videoStreamParams{}, audioStreamParams{}, err
	}
	videoCodec, err := validateVideoCodec(att.VideoCodec)
	if err != nil {
		return videoStreamParams{}, audioStreamParams{}, err
	}

	sampleRate, err := validateSampleRate(att.SampleRateHz)
	if err != nil {
		return videoStreamParams{}, audioStreamParams{}, err
	}
	channels, err := validateChannels(att.Channels)
	if err != nil {
		return videoStreamParams{}, audioStreamParams{}, err
	}
	audioCodec, err := validateAudioCodec(att.AudioCodec)
	if err != nil {
		return videoStreamParams{}, audioStreamParams{}, err
	}

	return videoStreamParams{
			width:   width,
			height:  height,
			codec:   videoCodec,
			profile: att.VideoProfile,
		}, audioStreamParams{
			sampleRate: sampleRate,
			channels:   channels,
			codec:      audioCodec,
		}, nil
}

// validateDisplayParams validates an UpdateSession display configuration (spec §4.F, "validate_display_params").
func validateDisplayParams(d proto.DisplayParams) (proto.DisplayParams, error) {
	width, height, err := validateResolution(d.Width, d.Height)
	if err != nil {
		return proto.DisplayParams{}, err
	}
	refresh, err := validateFramerateMHz(d.RefreshRateMHz)
	if err != nil {
		return proto.DisplayParams{}, err
	}
	return proto.DisplayParams{Width: width, Height: height, RefreshRateMHz: refresh}, nil
}
