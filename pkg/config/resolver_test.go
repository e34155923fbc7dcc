package config

import (
	"os"
	"testing"
)

func TestConfigResolver(t *testing.T) {
	t.Run("precedence order", func(t *testing.T) {
		os.Setenv("TEST_KEY", "env_value")
		os.Setenv("ENV_ONLY", "env_value")
		defer func() {
			os.Unsetenv("TEST_KEY")
			os.Unsetenv("ENV_ONLY")
		}()

		flagSource := NewFlagSource()
		flagSource.Set("TEST_KEY", "flag_value")

		resolver := NewConfigResolver(flagSource, &EnvSource{})

		// Flag should take precedence
		value := resolver.ResolveString("TEST_KEY", "default")
		if value != "flag_value" {
			t.Errorf("expected 'flag_value', got '%s'", value)
		}

		// Fall back to env
		value = resolver.ResolveString("ENV_ONLY", "default")
		if value != "env_value" {
			t.Errorf("expected 'env_value', got '%s'", value)
		}

		// Fall back to default
		value = resolver.ResolveString("MISSING_KEY", "default")
		if value != "default" {
			t.Errorf("expected 'default', got '%s'", value)
		}
	})

	t.Run("int resolution", func(t *testing.T) {
		flagSource := NewFlagSource()
		flagSource.Set("TEST_INT", 100)

		os.Setenv("TEST_INT", "50")
		defer os.Unsetenv("TEST_INT")

		resolver := NewConfigResolver(flagSource, &EnvSource{})

		if value := resolver.ResolveInt("TEST_INT", 1); value != 100 {
			t.Errorf("expected 100, got %d", value)
		}
		if value := resolver.ResolveInt("MISSING_INT", 42); value != 42 {
			t.Errorf("expected 42, got %d", value)
		}
	})

	t.Run("float resolution", func(t *testing.T) {
		flagSource := NewFlagSource()
		flagSource.Set("TEST_FLOAT", 2.71)

		os.Setenv("TEST_FLOAT", "3.14")
		defer os.Unsetenv("TEST_FLOAT")

		resolver := NewConfigResolver(flagSource, &EnvSource{})

		if value := resolver.ResolveFloat("TEST_FLOAT", 1.0); value != 2.71 {
			t.Errorf("expected 2.71, got %f", value)
		}
		if value := resolver.ResolveFloat("MISSING_FLOAT", 1.0); value != 1.0 {
			t.Errorf("expected 1.0, got %f", value)
		}
	})

	t.Run("bool resolution", func(t *testing.T) {
		flagSource := NewFlagSource()
		flagSource.Set("TEST_BOOL", true)

		os.Setenv("TEST_BOOL", "false")
		defer os.Unsetenv("TEST_BOOL")

		resolver := NewConfigResolver(flagSource, &EnvSource{})

		if !resolver.ResolveBool("TEST_BOOL", false) {
			t.Error("expected flag true to win over env false")
		}
		if resolver.ResolveBool("MISSING_BOOL", false) {
			t.Error("expected default false")
		}
	})

	t.Run("file source lowest precedence", func(t *testing.T) {
		path := writeConfigFile(t, "broker:\n  host: from-file\n")
		fileSource, err := NewFileSource(path)
		if err != nil {
			t.Fatal(err)
		}

		os.Setenv(KeyBrokerHost, "from-env")
		defer os.Unsetenv(KeyBrokerHost)

		resolver := NewConfigResolver(NewFlagSource(), &EnvSource{}, fileSource)
		if v := resolver.ResolveString(KeyBrokerHost, "default"); v != "from-env" {
			t.Errorf("expected env to win over file, got %q", v)
		}

		os.Unsetenv(KeyBrokerHost)
		if v := resolver.ResolveString(KeyBrokerHost, "default"); v != "from-file" {
			t.Errorf("expected file value, got %q", v)
		}
	})
}

func TestNewConfigResolver(t *testing.T) {
	resolver := NewConfigResolver(NewFlagSource(), &EnvSource{})
	if resolver == nil {
		t.Fatal("expected non-nil ConfigResolver")
	}
	if len(resolver.sources) != 2 {
		t.Errorf("expected 2 sources, got %d", len(resolver.sources))
	}
}

func TestConfigResolverEmptySources(t *testing.T) {
	resolver := NewConfigResolver()

	if value := resolver.ResolveString("ANY_KEY", "default"); value != "default" {
		t.Errorf("expected 'default', got '%s'", value)
	}
	if value := resolver.ResolveInt("ANY_KEY", 42); value != 42 {
		t.Errorf("expected 42, got %d", value)
	}
	if value := resolver.ResolveFloat("ANY_KEY", 3.14); value != 3.14 {
		t.Errorf("expected 3.14, got %f", value)
	}
	if value := resolver.ResolveBool("ANY_KEY", true); !value {
		t.Error("expected true")
	}
}
