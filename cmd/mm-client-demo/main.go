// Command mm-client-demo is a minimal reference client: it lists
// applications, launches one, attaches to it, and logs the stream's
// lifecycle until interrupted. It stands in for the real compositor/input
// frontend that spec §1's Non-goals place outside this module.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmstream/mm/internal/attachment"
	"github.com/mmstream/mm/internal/logger"
	"github.com/mmstream/mm/internal/mmclient"
	"github.com/mmstream/mm/internal/packetring"
	"github.com/mmstream/mm/internal/proto"
	"github.com/mmstream/mm/internal/transport"
)

const roundtripTimeout = 5 * time.Second

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if cfg.showVersion {
		fmt.Println(version)
		return
	}

	logger.Init()
	if err := logger.SetLevel(cfg.logLevel); err != nil {
		fmt.Printf("Warning: invalid log level %q, using default\n", cfg.logLevel)
	}
	log := logger.Logger().With("component", "cli")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tlsConf := &tls.Config{InsecureSkipVerify: cfg.insecure, NextProtos: []string{transport.ALPN}}

	client, err := mmclient.New(ctx, cfg.serverAddr, "mm-client-demo", tlsConf, transport.Config{})
	if err != nil {
		log.Error("failed to connect", "addr", cfg.serverAddr, "err", err)
		os.Exit(1)
	}
	defer client.Close()

	apps, err := client.ListApplications(ctx, roundtripTimeout)
	if err != nil {
		log.Error("list applications failed", "err", err)
		os.Exit(1)
	}
	if len(apps) == 0 {
		log.Error("server has no applications configured")
		os.Exit(1)
	}

	appID := cfg.application
	if appID == "" {
		appID = apps[0].ApplicationID
	}
	log.Info("launching application", "application_id", appID)

	sessionID, err := client.LaunchSession(ctx, appID, roundtripTimeout)
	if err != nil {
		log.Error("launch session failed", "application_id", appID, "err", err)
		os.Exit(1)
	}
	log.Info("session launched", "session_id", sessionID)

	attach := &proto.Attach{
		SessionID:    sessionID,
		VideoCodec:   "h265",
		Width:        1920,
		Height:       1080,
		FramerateMHz: 60000,
		AudioCodec:   "opus",
		SampleRateHz: 48000,
		Channels:     2,
	}

	ended := make(chan struct{})
	delegate := &loggingDelegate{log: log, ended: ended}

	// The handle factory passed to AttachSession receives only the session
	// and attachment IDs, not the server's Attached response, so
	// attachment.State is seeded with the requested parameters rather than
	// the server's settled ones; the VideoStreamStart/AudioStreamStart
	// parameters it reports are these requested values.
	requested := &proto.Attached{
		SessionID:       sessionID,
		VideoCodec:      attach.VideoCodec,
		StreamingWidth:  attach.Width,
		StreamingHeight: attach.Height,
		AudioCodec:      attach.AudioCodec,
		SampleRateHz:    attach.SampleRateHz,
		Channels:        attach.Channels,
	}
	handleFactory := func(sid, aid uint64) mmclient.AttachmentHandle {
		return attachment.New(sid, aid, requested, delegate, 0, 0)
	}

	att, err := client.AttachSession(ctx, attach, handleFactory, roundtripTimeout)
	if err != nil {
		log.Error("attach failed", "session_id", sessionID, "err", err)
		os.Exit(1)
	}
	log.Info("attached", "session_id", att.Attached.SessionID, "attachment_id", att.Attached.AttachmentID,
		"video_codec", att.Attached.VideoCodec, "audio_codec", att.Attached.AudioCodec)

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case <-ended:
		log.Info("attachment ended by server")
	}

	att.Detach()
	if err := client.EndSession(context.Background(), sessionID, roundtripTimeout); err != nil {
		log.Warn("end session failed", "err", err)
	}
}

// loggingDelegate implements attachment.Delegate by logging each event --
// a stand-in for the decode/render/compositor pipeline a real client
// frontend would drive instead (spec §1 Non-goals).
type loggingDelegate struct {
	log   interface {
		Info(msg string, args ...any)
		Warn(msg string, args ...any)
		Error(msg string, args ...any)
	}
	ended chan struct{}
}

func (d *loggingDelegate) VideoStreamStart(streamSeq uint64, params attachment.VideoStreamParams) {
	d.log.Info("video stream start", "stream_seq", streamSeq, "codec", params.Codec, "width", params.Width, "height", params.Height)
}

func (d *loggingDelegate) VideoPacket(pkt packetring.Packet) {
	d.log.Info("video packet", "pts", pkt.PTS, "seq", pkt.Seq, "bytes", len(pkt.Bytes()))
}

func (d *loggingDelegate) AudioStreamStart(streamSeq uint64, params attachment.AudioStreamParams) {
	d.log.Info("audio stream start", "stream_seq", streamSeq, "codec", params.Codec, "sample_rate", params.SampleRate)
}

func (d *loggingDelegate) AudioPacket(pkt packetring.Packet) {
	d.log.Info("audio packet", "pts", pkt.PTS, "seq", pkt.Seq, "bytes", len(pkt.Bytes()))
}

func (d *loggingDelegate) UpdateCursor(imageID uint64, hotspotX, hotspotY uint32, visible bool) {
	d.log.Info("cursor update", "image_id", imageID, "visible", visible)
}

func (d *loggingDelegate) LockPointer()    { d.log.Info("pointer locked") }
func (d *loggingDelegate) ReleasePointer() { d.log.Info("pointer released") }

func (d *loggingDelegate) DisplayParamsChanged(params proto.DisplayParams, reattachRequired bool) {
	d.log.Info("display params changed", "width", params.Width, "height", params.Height, "reattach_required", reattachRequired)
}

func (d *loggingDelegate) ClientError(err error) {
	d.log.Warn("client error", "err", err)
	close(d.ended)
}

func (d *loggingDelegate) ServerError(code uint32, text string) {
	d.log.Warn("server error", "code", code, "text", text)
}

func (d *loggingDelegate) AttachmentEnded() {
	close(d.ended)
}
