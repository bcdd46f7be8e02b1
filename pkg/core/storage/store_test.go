package storage

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thepower/tpgo/pkg/core/storage/dbconfig"
)

type dbSetup struct {
	name   string
	create func(testing.TB) Store
}

func newBoltStoreForTesting(t testing.TB) Store {
	s, err := NewBoltDBStore(dbconfig.BoltDBOptions{FilePath: filepath.Join(t.TempDir(), "test_bolt_db")})
	require.NoError(t, err)
	return s
}

func newLevelDBForTesting(t testing.TB) Store {
	s, err := NewLevelDBStore(dbconfig.LevelDBOptions{DataDirectoryPath: t.TempDir()})
	require.NoError(t, err)
	return s
}

var dbSetups = []dbSetup{
	{"MemoryStore", func(testing.TB) Store { return NewMemoryStore() }},
	{"BoltDBStore", newBoltStoreForTesting},
	{"LevelDBStore", newLevelDBForTesting},
}

func pushSeekDataSet(t *testing.T, s Store) []KeyValue {
	kvs := []KeyValue{
		{[]byte("10"), []byte("bar")},
		{[]byte("11"), []byte("bara")},
		{[]byte("20"), []byte("barb")},
		{[]byte("21"), []byte("barc")},
		{[]byte("22"), []byte("bard")},
		{[]byte("30"), []byte("bare")},
		{[]byte("31"), []byte("barf")},
	}
	for _, v := range kvs {
		require.NoError(t, s.Put(v.Key, v.Value))
	}
	return kvs
}

func seekAll(t *testing.T, s Store, rng SeekRange, cont func(k []byte) bool) []KeyValue {
	actual := []KeyValue{}
	require.NoError(t, s.Seek(rng, func(k, v []byte) bool {
		actual = append(actual, KeyValue{Key: bytes.Clone(k), Value: bytes.Clone(v)})
		return cont == nil || cont(k)
	}))
	return actual
}

func TestStores(t *testing.T) {
	for _, db := range dbSetups {
		t.Run(db.name, func(t *testing.T) {
			t.Run("get missing", func(t *testing.T) {
				s := db.create(t)
				_, err := s.Get([]byte("sparse"))
				require.ErrorIs(t, err, ErrKeyNotFound)
				require.NoError(t, s.Close())
			})
			t.Run("put get delete", func(t *testing.T) {
				s := db.create(t)
				require.NoError(t, s.Put([]byte("key"), []byte("value")))
				v, err := s.Get([]byte("key"))
				require.NoError(t, err)
				require.Equal(t, []byte("value"), v)

				require.NoError(t, s.Put([]byte("key"), []byte("other")))
				v, err = s.Get([]byte("key"))
				require.NoError(t, err)
				require.Equal(t, []byte("other"), v)

				require.NoError(t, s.Delete([]byte("key")))
				_, err = s.Get([]byte("key"))
				require.ErrorIs(t, err, ErrKeyNotFound)
				require.NoError(t, s.Delete([]byte("key")))
				require.NoError(t, s.Close())
			})
			t.Run("seek", func(t *testing.T) {
				s := db.create(t)
				kvs := pushSeekDataSet(t, s)

				require.Equal(t, []KeyValue{kvs[2], kvs[3], kvs[4]}, seekAll(t, s, SeekRange{Prefix: []byte("2")}, nil))
				require.Equal(t, []KeyValue{}, seekAll(t, s, SeekRange{Prefix: []byte("0")}, nil))
				require.Equal(t, []KeyValue{kvs[2], kvs[3]}, seekAll(t, s, SeekRange{Prefix: []byte("2")}, func(k []byte) bool {
					return string(k) < "21"
				}))
				require.Equal(t, []KeyValue{kvs[4], kvs[3], kvs[2]}, seekAll(t, s, SeekRange{Prefix: []byte("2"), Backwards: true}, nil))
				require.Equal(t, []KeyValue{kvs[3], kvs[4]}, seekAll(t, s, SeekRange{Prefix: []byte("2"), Start: []byte("1")}, nil))
				require.Equal(t, []KeyValue{kvs[3], kvs[2]}, seekAll(t, s, SeekRange{Prefix: []byte("2"), Start: []byte("1"), Backwards: true}, nil))
				require.Equal(t, kvs, seekAll(t, s, SeekRange{}, nil))
				require.Equal(t, []KeyValue{kvs[6], kvs[5], kvs[4], kvs[3], kvs[2], kvs[1], kvs[0]}, seekAll(t, s, SeekRange{Backwards: true}, nil))
				require.NoError(t, s.Close())
			})
		})
	}
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(dbconfig.DBConfiguration{Type: dbconfig.InMemoryDB})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)

	s, err = NewStore(dbconfig.DBConfiguration{
		Type:          dbconfig.BoltDB,
		BoltDBOptions: dbconfig.BoltDBOptions{FilePath: filepath.Join(t.TempDir(), "sub", "db")},
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = NewStore(dbconfig.DBConfiguration{Type: "redis"})
	require.Error(t, err)
}

func TestBoltDBReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro")
	s, err := NewBoltDBStore(dbconfig.BoltDBOptions{FilePath: path})
	require.NoError(t, err)
	require.NoError(t, s.Put([]byte{1}, []byte{2}))
	require.NoError(t, s.Close())

	ro, err := NewBoltDBStore(dbconfig.BoltDBOptions{FilePath: path, ReadOnly: true})
	require.NoError(t, err)
	v, err := ro.Get([]byte{1})
	require.NoError(t, err)
	require.Equal(t, []byte{2}, v)
	require.Error(t, ro.Put([]byte{1}, []byte{3}))
	require.NoError(t, ro.Close())
}

func TestKeyPrefix(t *testing.T) {
	require.Equal(t, []byte{0x01}, JournalTx.Bytes())
	require.Equal(t, []byte{0x01, 'a'}, JournalTx.Key([]byte("a")))
}
