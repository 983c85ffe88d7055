// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

// Package kvm implements a client library for PiKVM-compatible KVM bridge
// devices.
//
// The library drives a device's keyboard, mouse, video capture, mass
// storage emulation, and ATX power control over its HTTPS API and
// WebSocket event channel, enabling Go applications to automate a machine
// that only exposes physical console access.
//
// # Basic Usage
//
//	client, err := kvm.New("kvm.example.net",
//		kvm.WithPassword("secret"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	info, err := client.Info()
//	if err != nil {
//		log.Fatal(err)
//	}
//	log.Printf("connected: %v", info)
//
// # Input Gestures
//
//	// Type text; shift handling is automatic.
//	client.Keyboard().Type("Hello, World!")
//
//	// Chorded shortcut: modifiers held while the final key taps.
//	client.Keyboard().Shortcut("ControlLeft", "AltLeft", "Delete")
//
//	// Pointer gestures compose from primitive events.
//	client.Mouse().ClickAt(640, 360, kvm.ButtonLeft)
//	client.Mouse().Drag(100, 100, 500, 400, kvm.ButtonLeft)
//
// Every gesture has a Context form for cancellation and deadlines:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	if err := client.Keyboard().TypeContext(ctx, "slow target"); err != nil {
//		log.Fatal(err)
//	}
//
// # Notifications
//
//	notifyCh := make(chan kvm.Notification, 100)
//	client, err := kvm.New("kvm.example.net",
//		kvm.WithPassword("secret"),
//		kvm.WithNotificationChannel(notifyCh),
//	)
//
//	go func() {
//		for n := range notifyCh {
//			switch n.EventType {
//			case kvm.NotificationATX:
//				// Power state changed
//			case kvm.NotificationStreamer:
//				// Video streamer state changed
//			}
//		}
//	}()
//
// # Error Handling
//
//	if kvm.IsKVMError(err, kvm.ErrAuth) {
//		log.Printf("check credentials: %v", err)
//	}
//	if reason := kvm.APIReason(err); reason != "" {
//		log.Printf("device refused the request: %s", reason)
//	}
//
// The client holds no open connection until one is needed: the first
// request authenticates, the first input gesture opens the event channel,
// and both are re-established transparently after Close or a transport
// failure.

package kvm
