package repository

import "os"

func writeBytes(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

func readBytes(path string) ([]byte, error) {
	return os.ReadFile(path)
}
