// Package domain defines events for the event-driven architecture.
// Events replace the callback system and enable loose coupling between components.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Asset events
	EventAssetLoaded EventType = "asset.loaded"
	EventAssetFailed EventType = "asset.failed"

	// Playback events
	EventClipLoaded       EventType = "clip.loaded"
	EventPlaybackStarted  EventType = "playback.started"
	EventPlaybackPaused   EventType = "playback.paused"
	EventPlaybackStopped  EventType = "playback.stopped"
	EventPlaybackComplete EventType = "playback.completed"
	EventPlaybackProgress EventType = "playback.progress"
	EventPlaybackError    EventType = "playback.error"

	// Volume events
	EventVolumeChanged EventType = "volume.changed"

	// Demo events
	EventExampleSelected EventType = "example.selected"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// AssetLoadedEvent is published when an asset was fetched.
type AssetLoadedEvent struct {
	baseEvent
	Location string
	Title    string
	Size     int
}

// Type returns the event type.
func (e AssetLoadedEvent) Type() EventType {
	return EventAssetLoaded
}

// NewAssetLoadedEvent creates a new AssetLoadedEvent.
func NewAssetLoadedEvent(asset Asset) AssetLoadedEvent {
	return AssetLoadedEvent{
		baseEvent: newBaseEvent(),
		Location:  asset.Location,
		Title:     asset.DisplayName(),
		Size:      len(asset.Data),
	}
}

// AssetFailedEvent is published when fetching or decoding an asset failed.
type AssetFailedEvent struct {
	baseEvent
	Location string
	Error    error
}

// Type returns the event type.
func (e AssetFailedEvent) Type() EventType {
	return EventAssetFailed
}

// NewAssetFailedEvent creates a new AssetFailedEvent.
func NewAssetFailedEvent(location string, err error) AssetFailedEvent {
	return AssetFailedEvent{
		baseEvent: newBaseEvent(),
		Location:  location,
		Error:     err,
	}
}

// ClipLoadedEvent is published when a decoded clip is ready to play.
type ClipLoadedEvent struct {
	baseEvent
	Title    string
	Duration time.Duration

	// Location is where the clip was loaded from, empty for in-memory clips
	Location string
}

// Type returns the event type.
func (e ClipLoadedEvent) Type() EventType {
	return EventClipLoaded
}

// NewClipLoadedEvent creates a new ClipLoadedEvent.
func NewClipLoadedEvent(clip *Clip, location string) ClipLoadedEvent {
	return ClipLoadedEvent{
		baseEvent: newBaseEvent(),
		Title:     clip.Title,
		Duration:  clip.Duration(),
		Location:  location,
	}
}

// PlaybackStartedEvent is published when playback starts or resumes.
type PlaybackStartedEvent struct {
	baseEvent
	Position time.Duration
}

// Type returns the event type.
func (e PlaybackStartedEvent) Type() EventType {
	return EventPlaybackStarted
}

// NewPlaybackStartedEvent creates a new PlaybackStartedEvent.
func NewPlaybackStartedEvent(position time.Duration) PlaybackStartedEvent {
	return PlaybackStartedEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
	}
}

// PlaybackPausedEvent is published when playback is paused.
type PlaybackPausedEvent struct {
	baseEvent
	Position time.Duration
}

// Type returns the event type.
func (e PlaybackPausedEvent) Type() EventType {
	return EventPlaybackPaused
}

// NewPlaybackPausedEvent creates a new PlaybackPausedEvent.
func NewPlaybackPausedEvent(position time.Duration) PlaybackPausedEvent {
	return PlaybackPausedEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
	}
}

// PlaybackStoppedEvent is published when playback is stopped.
type PlaybackStoppedEvent struct {
	baseEvent
}

// Type returns the event type.
func (e PlaybackStoppedEvent) Type() EventType {
	return EventPlaybackStopped
}

// NewPlaybackStoppedEvent creates a new PlaybackStoppedEvent.
func NewPlaybackStoppedEvent() PlaybackStoppedEvent {
	return PlaybackStoppedEvent{baseEvent: newBaseEvent()}
}

// PlaybackCompletedEvent is published when a clip plays to its end.
type PlaybackCompletedEvent struct {
	baseEvent
	Title string
}

// Type returns the event type.
func (e PlaybackCompletedEvent) Type() EventType {
	return EventPlaybackComplete
}

// NewPlaybackCompletedEvent creates a new PlaybackCompletedEvent.
func NewPlaybackCompletedEvent(title string) PlaybackCompletedEvent {
	return PlaybackCompletedEvent{
		baseEvent: newBaseEvent(),
		Title:     title,
	}
}

// PlaybackProgressEvent is published periodically during playback.
type PlaybackProgressEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration
}

// Type returns the event type.
func (e PlaybackProgressEvent) Type() EventType {
	return EventPlaybackProgress
}

// Cursor returns the normalised position.
func (e PlaybackProgressEvent) Cursor() float64 {
	if e.Duration <= 0 {
		return 0
	}
	return float64(e.Position) / float64(e.Duration)
}

// NewPlaybackProgressEvent creates a new PlaybackProgressEvent.
func NewPlaybackProgressEvent(position, duration time.Duration) PlaybackProgressEvent {
	return PlaybackProgressEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
	}
}

// PlaybackErrorEvent is published when the engine rejects an operation.
type PlaybackErrorEvent struct {
	baseEvent
	Op    string
	Error error
}

// Type returns the event type.
func (e PlaybackErrorEvent) Type() EventType {
	return EventPlaybackError
}

// NewPlaybackErrorEvent creates a new PlaybackErrorEvent.
func NewPlaybackErrorEvent(op string, err error) PlaybackErrorEvent {
	return PlaybackErrorEvent{
		baseEvent: newBaseEvent(),
		Op:        op,
		Error:     err,
	}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// ExampleSelectedEvent is published when a demo becomes active.
type ExampleSelectedEvent struct {
	baseEvent
	Example Example
}

// Type returns the event type.
func (e ExampleSelectedEvent) Type() EventType {
	return EventExampleSelected
}

// NewExampleSelectedEvent creates a new ExampleSelectedEvent.
func NewExampleSelectedEvent(example Example) ExampleSelectedEvent {
	return ExampleSelectedEvent{
		baseEvent: newBaseEvent(),
		Example:   example,
	}
}
