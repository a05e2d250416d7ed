package algo

import (
	"errors"

	"github.com/sirupsen/logrus"
)

var (
	log = logrus.WithField("module", "algo")

	// 错误：节点不在图中
	ErrNodeNotExists = errors.New("node not exists in search graph")
)
