// Package versionwatch polls a static version manifest and notifies the caller
// when a new build has been deployed.
//
// The manifest is written at build time by cmd/generate-version and served next
// to the application. A Monitor fetches it once to capture a baseline, then on a
// fixed interval; the first manifest that differs from the baseline (different
// version string, or a strictly newer timestamp) invokes the change handler once
// and stops the monitor.
//
//	m, err := versionwatch.New(versionwatch.Config{
//		BaseURL:      "https://app.example.com",
//		OnNewVersion: func(r manifest.VersionRecord) { log.Printf("deployed %s", r.Version) },
//	})
//	if err != nil {
//		return err
//	}
//	m.Start(ctx)
//	defer m.Stop()
package versionwatch
