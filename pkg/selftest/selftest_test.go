package selftest_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/buildbench/buildbench/pkg/selftest"
)

func TestRun(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	require.NoError(t, selftest.Run(context.Background(), log))
}
