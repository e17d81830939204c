package protocol

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewLandmarksMessage creates a face-mesh frame message
func NewLandmarksMessage(points []Point) (*Message, error) {
	return NewMessage(TypeLandmarks, LandmarksData{Points: points})
}

// NewGazeMessage creates a pre-reduced gaze message
func NewGazeMessage(locked bool, jitter float64) (*Message, error) {
	return NewMessage(TypeGaze, GazeData{Locked: locked, Jitter: jitter})
}

// NewVolumeMessage creates a volume message
func NewVolumeMessage(level float64) (*Message, error) {
	return NewMessage(TypeVolume, VolumeData{Level: level})
}

// NewTranscriptMessage creates a speech fragment message
func NewTranscriptMessage(text string, final bool) (*Message, error) {
	return NewMessage(TypeTranscript, TranscriptData{Text: text, Final: final})
}

// NewSensorErrorMessage creates a sensor fault message
func NewSensorErrorMessage(source, message string) (*Message, error) {
	return NewMessage(TypeSensorError, SensorErrorData{Source: source, Message: message})
}

// NewAdvisoryMessage creates an intervention prompt message
func NewAdvisoryMessage(text string) (*Message, error) {
	return NewMessage(TypeAdvisory, AdvisoryData{Message: text})
}

// NewLogMessage creates a HUD activity line message
func NewLogMessage(line string) (*Message, error) {
	return NewMessage(TypeLog, LogData{Line: line})
}

// NewStatusMessage creates a lifecycle status message
func NewStatusMessage(phase, sessionID string, err error) (*Message, error) {
	data := StatusData{Phase: phase, SessionID: sessionID}
	if err != nil {
		data.Error = err.Error()
	}
	return NewMessage(TypeStatus, data)
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetLandmarksData extracts a face-mesh frame from a message
func (m *Message) GetLandmarksData() (*LandmarksData, error) {
	var data LandmarksData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetGazeData extracts gaze data from a message
func (m *Message) GetGazeData() (*GazeData, error) {
	var data GazeData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetVolumeData extracts volume data from a message
func (m *Message) GetVolumeData() (*VolumeData, error) {
	var data VolumeData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSpectrumData extracts spectrum bins from a message
func (m *Message) GetSpectrumData() (*SpectrumData, error) {
	var data SpectrumData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTranscriptData extracts a speech fragment from a message
func (m *Message) GetTranscriptData() (*TranscriptData, error) {
	var data TranscriptData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSensorErrorData extracts a sensor fault from a message
func (m *Message) GetSensorErrorData() (*SensorErrorData, error) {
	var data SensorErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
