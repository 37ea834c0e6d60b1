package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"life-reflection-api/pkg/llm"

	"gopkg.in/yaml.v3"
)

// GenerationSettings はgeneration.yamlの構造を定義
type GenerationSettings struct {
	Generation llm.GenerationParams `yaml:"generation"`
	Retry      struct {
		MaxAttempts int `yaml:"max_attempts"`
	} `yaml:"retry"`
}

// DefaultGenerationSettings 既定の生成設定
func DefaultGenerationSettings() *GenerationSettings {
	s := &GenerationSettings{Generation: llm.DefaultGenerationParams()}
	s.Retry.MaxAttempts = llm.DefaultMaxAttempts
	return s
}

// LoadGenerationSettings はYAMLファイルの値を既定値に上書きして読み込む。ファイルがなければ既定値のまま。
func LoadGenerationSettings(path string) (*GenerationSettings, error) {
	settings := DefaultGenerationSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("生成設定ファイルの読み込みに失敗: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("YAMLのパースに失敗: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// Validate 値の範囲を検証
func (s *GenerationSettings) Validate() error {
	g := s.Generation
	switch {
	case g.Temperature < 0 || g.Temperature > 2:
		return fmt.Errorf("temperatureは0〜2の範囲で指定してください: %v", g.Temperature)
	case g.MaxOutputTokens <= 0:
		return fmt.Errorf("max_output_tokensは1以上である必要があります: %d", g.MaxOutputTokens)
	case g.TopP < 0 || g.TopP > 1:
		return fmt.Errorf("top_pは0〜1の範囲で指定してください: %v", g.TopP)
	case g.TopK < 0:
		return fmt.Errorf("top_kは0以上である必要があります: %d", g.TopK)
	case s.Retry.MaxAttempts < 1:
		return fmt.Errorf("retry.max_attemptsは1以上である必要があります: %d", s.Retry.MaxAttempts)
	}
	return nil
}
