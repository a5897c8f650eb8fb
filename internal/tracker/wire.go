package tracker

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/mudra/internal/skeleton"
)

// jsonUpdate is the wire form of an Update, shared by the replay files and
// the websocket ingest.
type jsonUpdate struct {
	Timestamp uint64      `json:"timestamp"`
	Events    []jsonEvent `json:"events,omitempty"`
	Actors    []jsonActor `json:"actors,omitempty"`
}

type jsonEvent struct {
	Type    EventType `json:"type"`
	Actor   int       `json:"actor"`
	Success bool      `json:"success,omitempty"`
}

type jsonActor struct {
	ID     int                          `json:"id"`
	Joints map[string]skeleton.Point3D `json:"joints"`
}

// DecodeUpdate parses one wire message.
func DecodeUpdate(data []byte) (*Update, error) {
	var msg jsonUpdate
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode update: %w", err)
	}
	return msg.toUpdate()
}

// EncodeUpdate renders u in wire form.
func EncodeUpdate(u *Update) ([]byte, error) {
	msg := jsonUpdate{Timestamp: u.Timestamp}
	for _, ev := range u.Events {
		msg.Events = append(msg.Events, jsonEvent{Type: ev.Type, Actor: ev.ActorID, Success: ev.Success})
	}
	for _, af := range u.Frames {
		joints := make(map[string]skeleton.Point3D, skeleton.NumJoints)
		for j, p := range af.Frame.Joints {
			joints[skeleton.JointName(j)] = p
		}
		msg.Actors = append(msg.Actors, jsonActor{ID: af.ActorID, Joints: joints})
	}
	return json.Marshal(msg)
}

func (m *jsonUpdate) toUpdate() (*Update, error) {
	u := &Update{Timestamp: m.Timestamp}
	for _, ev := range m.Events {
		switch ev.Type {
		case ActorAppeared, ActorLost, CalibrationStart, CalibrationComplete:
		default:
			return nil, fmt.Errorf("unknown event type %q", ev.Type)
		}
		u.Events = append(u.Events, Event{Type: ev.Type, ActorID: ev.Actor, Success: ev.Success})
	}
	for _, a := range m.Actors {
		var (
			f    skeleton.Frame
			seen [skeleton.NumJoints]bool
		)
		for name, p := range a.Joints {
			j, ok := skeleton.JointByName(name)
			if !ok {
				return nil, fmt.Errorf("actor %d: unknown joint %q", a.ID, name)
			}
			f.Joints[j] = p
			seen[j] = true
		}
		for j, ok := range seen {
			if !ok {
				return nil, fmt.Errorf("actor %d: missing joint %q", a.ID, skeleton.JointName(j))
			}
		}
		u.Frames = append(u.Frames, ActorFrame{ActorID: a.ID, Frame: f})
	}
	return u, nil
}
