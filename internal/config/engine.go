package config

import (
	"fmt"
	"strings"
)

const (
	G2PEngineDict   = "dict"
	G2PEngineEspeak = "espeak"
)

func NormalizeG2PEngine(raw string) (string, error) {
	engine := strings.ToLower(strings.TrimSpace(raw))
	if engine == "" {
		engine = G2PEngineDict
	}
	switch engine {
	case G2PEngineDict, G2PEngineEspeak:
		return engine, nil
	case "dictionary", "lexicon":
		return G2PEngineDict, nil
	case "espeak-ng":
		return G2PEngineEspeak, nil
	default:
		return "", fmt.Errorf(
			"invalid g2p engine %q (expected %s|%s)",
			raw,
			G2PEngineDict,
			G2PEngineEspeak,
		)
	}
}
