package caster

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

type ChannelCaster[T any] interface {
	From(string) (T, error)
	To(T) (string, error)
}

type JSONChannelCaster[T any] struct{}

func (jc JSONChannelCaster[T]) From(data string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(data), &v)
	return v, err
}

func (jc JSONChannelCaster[T]) To(v T) (string, error) {
	data, err := json.Marshal(v)
	return string(data), err
}

// MsgpackChannelCaster is the binary counterpart of JSONChannelCaster. The
// string it produces is not meant to be printed.
type MsgpackChannelCaster[T any] struct{}

func (mc MsgpackChannelCaster[T]) From(data string) (T, error) {
	var v T
	err := msgpack.Unmarshal([]byte(data), &v)
	return v, err
}

func (mc MsgpackChannelCaster[T]) To(v T) (string, error) {
	data, err := msgpack.Marshal(v)
	return string(data), err
}
