// ABOUTME: Audio environment package
// ABOUTME: One-time backend initialization and the published device catalog
// Package env brings up the media and device backends and owns the device catalog.
//
// An Environment is an explicit context object: build one at process start,
// initialize it once and pass it to every component that needs device
// information. Initialization is idempotent and each backend is brought up at
// most once, even when several goroutines race on the first call. After
// InitializePortAudioBackend returns, the catalog never changes and readers
// need no locking.
//
// Example:
//
//	environment := env.New(ffmpeg.New(), portaudio.New(logger), env.WithLogger(logger))
//	_ = environment.InitializeMediaBackend("")
//	if err := environment.InitializePortAudioBackend(portaudio.DefaultLibraryName()); err != nil {
//	    return err
//	}
//	devices, _ := environment.OutputDevices()
package env
