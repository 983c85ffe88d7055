// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

import (
	"context"
	"time"
)

// shiftKey is the modifier held for shifted characters during typing.
const shiftKey = "ShiftLeft"

// shortcutPause separates a shortcut's press phase from its release phase
// so the target host observes the chord before it comes apart.
const shortcutPause = 50 * time.Millisecond

// releaseTimeout bounds best-effort key releases during shortcut cleanup.
const releaseTimeout = 5 * time.Second

// Keyboard composes keyboard gestures into primitive key events delivered
// over the event channel. Obtain it from Client.Keyboard.
//
// Every method validates its key names against the key map before sending
// anything, so an unknown name fails without device effects.
type Keyboard struct {
	client *Client
}

// Press taps a key: key-down immediately followed by key-up, delivered as
// one contiguous sequence with nothing interleaved between the two events,
// even when other goroutines are sending concurrently.
//
// Key names are symbolic ("KeyA", "Enter", "ControlLeft"); unknown names
// fail with an ErrUnknownKey error.
func (k *Keyboard) Press(key string) error {
	return k.PressContext(context.Background(), key)
}

// PressContext is Press with context support for cancellation.
func (k *Keyboard) PressContext(ctx context.Context, key string) error {
	if _, err := ResolveKey(key); err != nil {
		return err
	}
	return k.client.sendEvents(ctx, "Press",
		KeyEvent{Key: key, Pressed: true},
		KeyEvent{Key: key, Pressed: false},
	)
}

// Hold presses a key down and leaves it held. The caller is responsible
// for releasing it with Release; no bookkeeping of held keys is kept and
// nothing is auto-released on close.
func (k *Keyboard) Hold(key string) error {
	return k.HoldContext(context.Background(), key)
}

// HoldContext is Hold with context support for cancellation.
func (k *Keyboard) HoldContext(ctx context.Context, key string) error {
	if _, err := ResolveKey(key); err != nil {
		return err
	}
	return k.client.sendEvents(ctx, "Hold", KeyEvent{Key: key, Pressed: true})
}

// Release releases a held key. Releasing a key that is not held is
// harmless; the device treats it as a no-op.
func (k *Keyboard) Release(key string) error {
	return k.ReleaseContext(context.Background(), key)
}

// ReleaseContext is Release with context support for cancellation.
func (k *Keyboard) ReleaseContext(ctx context.Context, key string) error {
	if _, err := ResolveKey(key); err != nil {
		return err
	}
	return k.client.sendEvents(ctx, "Release", KeyEvent{Key: key, Pressed: false})
}

// Shortcut presses a key combination: each key down in order, a brief
// pause, then each key up in reverse order, e.g.
//
//	client.Keyboard().Shortcut("ControlLeft", "AltLeft", "Delete")
//
// All key names are validated before anything is sent. If a send fails
// partway, keys already pressed are released in reverse order on a
// best-effort basis before the error is returned, so the target is not
// left with a key stuck down.
func (k *Keyboard) Shortcut(keys ...string) error {
	return k.ShortcutContext(context.Background(), keys...)
}

// ShortcutContext is Shortcut with context support for cancellation.
// Cleanup releases run on their own bounded context, so they still happen
// when ctx is already cancelled.
func (k *Keyboard) ShortcutContext(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	for _, key := range keys {
		if _, err := ResolveKey(key); err != nil {
			return err
		}
	}

	for i, key := range keys {
		if err := k.client.sendEvents(ctx, "Shortcut", KeyEvent{Key: key, Pressed: true}); err != nil {
			k.releaseAll(keys[:i])
			return err
		}
	}

	if err := sleepContext(ctx, shortcutPause); err != nil {
		k.releaseAll(keys)
		return transportError("Shortcut", "cancelled during shortcut pause", err)
	}

	for i := len(keys) - 1; i >= 0; i-- {
		if err := k.client.sendEvents(ctx, "Shortcut", KeyEvent{Key: keys[i], Pressed: false}); err != nil {
			// The failed key may still be held, so it is retried too.
			k.releaseAll(keys[:i+1])
			return err
		}
	}
	return nil
}

// Type writes text by translating each character into key strokes and
// sending the corresponding key events. The whole text is translated
// before anything is sent, so an unsupported character fails with an
// ErrUnsupportedCharacter error and no device effects.
//
// Each character is delivered as one contiguous sequence: Shift-down,
// key-down, key-up, Shift-up for shifted characters, or key-down, key-up
// otherwise. Characters from concurrent callers cannot interleave inside
// a character, only between characters.
func (k *Keyboard) Type(text string) error {
	return k.TypeContext(context.Background(), text)
}

// TypeContext is Type with context support for cancellation. Cancellation
// between characters stops cleanly; text already sent stays sent.
func (k *Keyboard) TypeContext(ctx context.Context, text string) error {
	strokes, err := TranslateText(text)
	if err != nil {
		return err
	}

	for _, stroke := range strokes {
		var events []Event
		if stroke.Shift {
			events = []Event{
				KeyEvent{Key: shiftKey, Pressed: true},
				KeyEvent{Key: stroke.Key, Pressed: true},
				KeyEvent{Key: stroke.Key, Pressed: false},
				KeyEvent{Key: shiftKey, Pressed: false},
			}
		} else {
			events = []Event{
				KeyEvent{Key: stroke.Key, Pressed: true},
				KeyEvent{Key: stroke.Key, Pressed: false},
			}
		}
		if err := k.client.sendEvents(ctx, "Type", events...); err != nil {
			return err
		}
	}
	return nil
}

// releaseAll releases keys in reverse order on a best-effort basis, using
// a fresh bounded context so cleanup happens even when the caller's
// context is already cancelled. Failures are logged and skipped; the
// remaining keys are still attempted.
func (k *Keyboard) releaseAll(keys []string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	for i := len(keys) - 1; i >= 0; i-- {
		if err := k.client.sendEvents(ctx, "Shortcut", KeyEvent{Key: keys[i], Pressed: false}); err != nil {
			k.client.logger.Warn("Failed to release key during shortcut cleanup",
				Field{Key: "key", Value: keys[i]},
				Field{Key: "error", Value: err})
		}
	}
}

// sleepContext sleeps for d or until the context ends, whichever comes
// first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
