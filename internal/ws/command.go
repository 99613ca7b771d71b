package ws

import (
	"bytes"
	"encoding/json"

	"github.com/coreman2200/keylight/internal/color"
)

// Command is one /control message. Which fields matter depends on Cmd.
type Command struct {
	Cmd string `json:"cmd"`

	Row     int        `json:"row"`
	Col     int        `json:"col"`
	Pressed PressState `json:"pressed"`
	ID      int        `json:"id"`
	Index   int        `json:"index"`

	Color int    `json:"color"`
	Mode  string `json:"mode"`
	Step  int    `json:"step"`
	Round int    `json:"round"`
	Group int    `json:"group"`

	H int `json:"h"`
	S int `json:"s"`
	V int `json:"v"`
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`

	Colors []color.RGB `json:"colors"`

	Layer  int    `json:"layer"`
	Value  int    `json:"value"`
	Screen int    `json:"screen"`
	On     bool   `json:"on"`
	Times  int    `json:"times"`
	Dir    int    `json:"dir"`
	Name   string `json:"name"`
}

// PressState accepts true/false or the table index 0/1. Other numbers are
// kept so the tables can reject them.
type PressState int

func (p *PressState) UnmarshalJSON(b []byte) error {
	switch {
	case bytes.Equal(b, []byte("true")):
		*p = 1
		return nil
	case bytes.Equal(b, []byte("false")), bytes.Equal(b, []byte("null")):
		*p = 0
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = PressState(n)
	return nil
}
