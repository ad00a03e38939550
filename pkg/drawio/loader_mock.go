package drawio

// MockLoader is a mock implementation of Loader for testing
type MockLoader struct {
	MockData  map[string][]byte
	MockError error
}

func (m *MockLoader) Load(path string) ([]byte, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	data, ok := m.MockData[path]
	if !ok {
		return nil, &missingFileError{path: path}
	}
	return data, nil
}

type missingFileError struct {
	path string
}

func (e *missingFileError) Error() string {
	return "mock: no data for " + e.path
}
