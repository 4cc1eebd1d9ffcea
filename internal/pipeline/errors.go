package pipeline

import "errors"

var (
	ErrInvalidKafkaConfig   = errors.New("invalid Kafka configuration provided")
	ErrKafkaFetchFailed     = errors.New("failed to fetch message from Kafka")
	ErrKafkaCommitFailed    = errors.New("failed to commit Kafka offset")
	ErrKafkaWriteFailed     = errors.New("failed to publish features to Kafka")
	ErrFileSourceFailed     = errors.New("failed to read segment file")
	ErrUnknownSourceType    = errors.New("unknown source type")
	ErrSourceCreationFailed = errors.New("failed to create source")
	ErrSinkCreationFailed   = errors.New("failed to create sink")
	ErrAssemblerCreation    = errors.New("failed to create feature assembler")
	ErrSourceRunFailed      = errors.New("source component failed")
	ErrCalculatorRunFailed  = errors.New("calculator component failed")
	ErrAlerterRunFailed     = errors.New("alerter component failed")
)
