package orchestrators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/nativescan/internal/domain/entities"
	"github.com/ochairo/nativescan/internal/domain/interfaces"
	"github.com/ochairo/nativescan/internal/domain/services"
	"github.com/ochairo/nativescan/internal/testfixtures"
)

// blockingLoader holds a scan in the loading phase until release is closed
type blockingLoader struct {
	started chan struct{}
	release chan struct{}
	data    []byte
}

func (l *blockingLoader) Load(_ context.Context) (entities.ArchiveFile, any, error) {
	close(l.started)
	<-l.release
	return entities.ArchiveFile{Name: "Blocked.zip"}, l.data, nil
}

type panickingLoader struct{}

func (panickingLoader) Load(_ context.Context) (entities.ArchiveFile, any, error) {
	panic("loader exploded")
}

func newWorker() *ScanWorker {
	return NewScanWorker(newGateway(nil), services.NewScanService(entities.DefaultScanConfig()), &interfaces.NoOpLogger{})
}

func TestScanWorker_Post(t *testing.T) {
	worker := newWorker()
	archive := testfixtures.App("Demo", "2.0", testfixtures.Arm64())

	ch, err := worker.Post(StartCommand{
		Command:    CommandStart,
		File:       entities.ArchiveFile{Name: "Demo.zip"},
		ByteBuffer: archive,
	})
	require.NoError(t, err)

	var received []entities.ScanMessage
	final, err := Await(ch, func(m entities.ScanMessage) { received = append(received, m) })
	require.NoError(t, err)

	require.Len(t, received, 9)
	assert.Equal(t, received[len(received)-1], final)
	for i, m := range received {
		assert.Equal(t, final.ScanID, m.ScanID)
		assert.Equal(t, i+1, m.Sequence)
	}
	assert.NotEmpty(t, final.ScanID)

	report, ok := final.Report()
	require.True(t, ok)
	assert.True(t, report.Native())
	assert.Equal(t, "application/zip", report.Details[2].Value)

	// The channel is closed after the final message
	_, open := <-ch
	assert.False(t, open)
	assert.False(t, worker.Busy())
}

func TestScanWorker_RejectsUnknownCommand(t *testing.T) {
	ch, err := newWorker().Post(StartCommand{Command: "stop"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Nil(t, ch)
}

func TestScanWorker_Busy(t *testing.T) {
	worker := newWorker()
	loader := &blockingLoader{
		started: make(chan struct{}),
		release: make(chan struct{}),
		data:    testfixtures.App("Demo", "2.0", testfixtures.Arm64()),
	}

	first, err := worker.PostLoader(loader)
	require.NoError(t, err)
	<-loader.started
	assert.True(t, worker.Busy())

	_, err = worker.Post(StartCommand{Command: CommandStart, ByteBuffer: []byte("PK")})
	assert.ErrorIs(t, err, ErrWorkerBusy)

	close(loader.release)
	final, err := Await(first, nil)
	require.NoError(t, err)
	assert.Equal(t, entities.OutcomeSucceeded, final.Outcome)

	// Once the stream is drained the worker accepts the next scan
	second, err := worker.Post(StartCommand{Command: CommandStart, File: entities.ArchiveFile{Name: "Empty.zip"}})
	require.NoError(t, err)
	final, err = Await(second, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, final.Error, entities.ErrUnsupportedSource)
	assert.NotEqual(t, "", final.ScanID)
}

func TestScanWorker_RecoversPanic(t *testing.T) {
	worker := newWorker()

	ch, err := worker.PostLoader(panickingLoader{})
	require.NoError(t, err)

	var received []entities.ScanMessage
	final, err := Await(ch, func(m entities.ScanMessage) { received = append(received, m) })
	require.NoError(t, err)

	require.Len(t, received, 2)
	assert.Equal(t, services.MsgLoading, received[0].Message)
	assert.Equal(t, 2, final.Sequence)
	assert.True(t, final.Final)
	assert.Equal(t, entities.StatusFinished, final.Status)
	assert.Equal(t, entities.OutcomeFailed, final.Outcome)
	assert.ErrorIs(t, final.Error, entities.ErrInternal)
	assert.Contains(t, final.Error.Error(), "loader exploded")
	assert.False(t, worker.Busy())
}

func TestAwait_NoFinalMessage(t *testing.T) {
	ch := make(chan entities.ScanMessage, 1)
	ch <- entities.ScanMessage{Sequence: 1, Status: entities.StatusLoading}
	close(ch)

	_, err := Await(ch, nil)
	assert.ErrorIs(t, err, ErrNoFinalMessage)
}

func TestConstructors_NilLoggerFallsBackToStdoutLogger(t *testing.T) {
	service := services.NewScanService(entities.DefaultScanConfig())

	orchestrator := NewScanOrchestrator(newGateway(nil), service, nil)
	assert.IsType(t, &interfaces.StdoutLogger{}, orchestrator.logger)

	worker := NewScanWorker(newGateway(nil), service, nil)
	assert.IsType(t, &interfaces.StdoutLogger{}, worker.logger)

	batch := NewBatchScanner(newGateway(nil), service, nil, nil, 1)
	assert.IsType(t, &interfaces.StdoutLogger{}, batch.logger)
}
