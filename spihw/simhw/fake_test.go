package simhw

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeServesPreloadedRegisterOnRead(t *testing.T) {
	f := NewFake()
	f.SetRegister(0x20, 0x67)

	tx := []byte{0x80 | 0x20, 0x00}
	rx := make([]byte, 2)
	done := make(chan error, 1)
	require.NoError(t, f.TransferNonBlocking(tx, rx, func(err error) { done <- err }))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("transfer did not complete")
	}
	assert.Equal(t, byte(0x67), rx[1], "expected 0x67 read back")
}

func TestFakeWriteThenReadRoundTrips(t *testing.T) {
	f := NewFake()
	writeTx := []byte{0x20, 0x42}
	writeRx := make([]byte, 2)
	wdone := make(chan error, 1)
	f.TransferNonBlocking(writeTx, writeRx, func(err error) { wdone <- err })
	<-wdone

	assert.Equal(t, byte(0x42), f.Register(0x20), "expected register written to 0x42")
}

func TestFakeJamOnlyResolvesOnAbort(t *testing.T) {
	f := NewFake()
	f.Jam = true
	done := make(chan error, 1)
	f.TransferNonBlocking([]byte{0x01}, make([]byte, 1), func(err error) { done <- err })

	select {
	case <-done:
		t.Fatal("jammed transfer must not complete on its own")
	case <-time.After(20 * time.Millisecond):
	}
	f.Abort()
	select {
	case <-done:
		t.Fatal("Abort must not itself invoke onDone")
	case <-time.After(20 * time.Millisecond):
	}
}
