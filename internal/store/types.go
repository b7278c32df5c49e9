package store

import (
	"encoding"

	"github.com/vmihailenco/msgpack/v5"
)

type Storeable interface {
	Key() []byte
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

type dbRosterEntry struct {
	Username string `msgpack:"username"`
	LastSeen int64  `msgpack:"lastSeen"`
}

func (e *dbRosterEntry) Key() []byte {
	return []byte(e.Username)
}

func (e *dbRosterEntry) MarshalBinary() (data []byte, err error) {
	type alias dbRosterEntry
	return msgpack.Marshal((*alias)(e))
}

func (e *dbRosterEntry) UnmarshalBinary(data []byte) error {
	type alias dbRosterEntry
	return msgpack.Unmarshal(data, (*alias)(e))
}
