package consumer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAudioPlayerBridge_Play(t *testing.T) {
	client := &fakeMQTTClient{}
	p := NewAudioPlayerBridge(client, "wearable/audio/question", "wearable/control", 1, zap.NewNop())

	wav := []byte{0x52, 0x49, 0x46, 0x46}
	require.NoError(t, p.Play(wav))

	require.Len(t, client.published, 1)
	assert.Equal(t, "wearable/audio/question", client.published[0].topic)
	assert.Equal(t, wav, client.published[0].payload)
}

func TestAudioPlayerBridge_StopNotifiesBridge(t *testing.T) {
	client := &fakeMQTTClient{}
	p := NewAudioPlayerBridge(client, "wearable/audio/question", "wearable/control", 1, zap.NewNop())

	p.Stop()

	require.Len(t, client.published, 1)
	assert.Equal(t, "wearable/control", client.published[0].topic)
	assert.JSONEq(t, `{"command":"stop_playback"}`, string(client.published[0].payload))
}

func TestAudioRecorderBridge_CaptureCycle(t *testing.T) {
	client := &fakeMQTTClient{}
	r := NewAudioRecorderBridge(client, "wearable/audio/answer", "wearable/control", 1, zap.NewNop())

	require.NoError(t, r.Start())
	require.NotNil(t, client.handler)
	assert.Equal(t, []string{"wearable/audio/answer"}, client.subscribed)

	// 桥接端分片上行，按序拼接
	require.NoError(t, client.handler("wearable/audio/answer", []byte{0x01, 0x02}))
	require.NoError(t, client.handler("wearable/audio/answer", []byte{0x03}))

	audio, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, audio)
	assert.Equal(t, []string{"wearable/audio/answer"}, client.unsubscribed)
}

func TestAudioRecorderBridge_StopWithoutAudio(t *testing.T) {
	client := &fakeMQTTClient{}
	r := NewAudioRecorderBridge(client, "wearable/audio/answer", "wearable/control", 1, zap.NewNop())

	require.NoError(t, r.Start())
	_, err := r.Stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no answer audio")
}

func TestAudioRecorderBridge_DoubleStart(t *testing.T) {
	client := &fakeMQTTClient{}
	r := NewAudioRecorderBridge(client, "wearable/audio/answer", "wearable/control", 1, zap.NewNop())

	require.NoError(t, r.Start())
	require.Error(t, r.Start())
}

func TestAudioRecorderBridge_StopWithoutStart(t *testing.T) {
	client := &fakeMQTTClient{}
	r := NewAudioRecorderBridge(client, "wearable/audio/answer", "wearable/control", 1, zap.NewNop())

	_, err := r.Stop()
	require.Error(t, err)
}

func TestAudioRecorderBridge_ChunksAfterStopIgnored(t *testing.T) {
	client := &fakeMQTTClient{}
	r := NewAudioRecorderBridge(client, "wearable/audio/answer", "wearable/control", 1, zap.NewNop())

	require.NoError(t, r.Start())
	require.NoError(t, client.handler("wearable/audio/answer", []byte{0x01}))

	_, err := r.Stop()
	require.NoError(t, err)

	// 停止后迟到的分片不影响下一次录制
	require.NoError(t, client.handler("wearable/audio/answer", []byte{0xFF}))
	require.NoError(t, r.Start())
	require.NoError(t, client.handler("wearable/audio/answer", []byte{0x02}))

	audio, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02}, audio)
}
