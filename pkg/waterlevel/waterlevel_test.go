package waterlevel

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shs-system/go-homehub/pkg/protocol"
	"github.com/shs-system/go-homehub/pkg/sensor"
)

// pipeSensor wires the parser to an in-memory pipe.
func pipeSensor(t *testing.T, threshold int) (*Sensor, *io.PipeWriter) {
	t.Helper()
	r, w := io.Pipe()
	s := New(r, threshold)
	t.Cleanup(func() {
		w.Close()
		s.Close()
	})
	return s, w
}

// nextSample polls until the background reader has delivered a sample.
func nextSample(t *testing.T, s *Sensor) *sensor.Sample {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sample, err := s.Sample()
		require.NoError(t, err)
		if sample != nil {
			return sample
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no sample arrived")
	return nil
}

func TestSampleParsesReading(t *testing.T) {
	s, w := pipeSensor(t, 500)

	go w.Write([]byte("123\n"))

	sample := nextSample(t, s)
	require.Equal(t, protocol.TypeWaterReading, sample.Reading.Type)

	reading, err := sample.Reading.GetWaterReading()
	require.NoError(t, err)
	assert.Equal(t, 123, reading.Value)
	assert.False(t, reading.HighWaterLevel)
	assert.Nil(t, sample.Alert)
}

func TestSampleHighWaterAlert(t *testing.T) {
	s, w := pipeSensor(t, 500)

	go w.Write([]byte("742\n"))

	sample := nextSample(t, s)
	reading, err := sample.Reading.GetWaterReading()
	require.NoError(t, err)
	assert.True(t, reading.HighWaterLevel)

	require.NotNil(t, sample.Alert)
	assert.Equal(t, protocol.TypeWaterAlert, sample.Alert.Type)
	alert, err := sample.Alert.GetAlertData()
	require.NoError(t, err)
	assert.Equal(t, WaterAlertText, alert.Message)
}

func TestHighWaterBoundary(t *testing.T) {
	s, _ := pipeSensor(t, 500)

	assert.False(t, s.HighWater(499))
	assert.True(t, s.HighWater(500))
	assert.True(t, s.HighWater(501))
}

func TestSampleIdleLine(t *testing.T) {
	s, _ := pipeSensor(t, 500)

	sample, err := s.Sample()
	require.NoError(t, err)
	assert.Nil(t, sample, "idle line should yield no sample")
}

func TestInvalidLinesSkipped(t *testing.T) {
	s, w := pipeSensor(t, 500)

	go w.Write([]byte("garbage\n\n  77  \n"))

	sample := nextSample(t, s)
	reading, err := sample.Reading.GetWaterReading()
	require.NoError(t, err)
	assert.Equal(t, 77, reading.Value)
}

func TestSampleAfterClose(t *testing.T) {
	r, w := io.Pipe()
	s := New(r, 500)

	w.Close()
	s.Close()

	// Reader goroutine closes the channel; Sample reports the dead port
	// with an error the monitor recognizes as terminal.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := s.Sample(); err != nil {
			assert.ErrorIs(t, err, ErrPortClosed)
			assert.ErrorIs(t, err, sensor.ErrClosed)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Sample never reported the closed port")
}

func TestName(t *testing.T) {
	s, _ := pipeSensor(t, 500)
	assert.Equal(t, "water_level", s.Name())
	assert.Equal(t, 500, s.Threshold())
}
