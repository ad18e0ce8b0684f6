package service

import (
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/igor04091968/tunnel-panel/config"
	"github.com/igor04091968/tunnel-panel/logger"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

type ServerService struct {
	startTime time.Time
}

func NewServerService() *ServerService {
	return &ServerService{startTime: time.Now()}
}

// GetStatus collects the comma separated parts named in request: cpu, mem,
// sys and app. An empty request returns all of them.
func (s *ServerService) GetStatus(request string) map[string]interface{} {
	status := make(map[string]interface{}, 0)
	if request == "" {
		request = "cpu,mem,sys,app"
	}
	for _, r := range strings.Split(request, ",") {
		switch strings.TrimSpace(r) {
		case "cpu":
			status["cpu"] = s.getCpuPercent()
		case "mem":
			status["mem"] = s.getMemInfo()
		case "sys":
			status["sys"] = s.getSystemInfo()
		case "app":
			status["app"] = s.getAppInfo()
		}
	}
	return status
}

func (s *ServerService) getCpuPercent() float64 {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		logger.Warning("get cpu percent failed: ", err)
		return 0
	}
	return percents[0]
}

func (s *ServerService) getMemInfo() map[string]interface{} {
	info := make(map[string]interface{}, 0)
	memInfo, err := mem.VirtualMemory()
	if err != nil {
		logger.Warning("get virtual memory failed: ", err)
		info["current"] = 0
		info["total"] = 0
	} else {
		info["current"] = memInfo.Used
		info["total"] = memInfo.Total
	}
	return info
}

func (s *ServerService) getSystemInfo() map[string]interface{} {
	info := make(map[string]interface{}, 0)
	upTime, err := host.Uptime()
	if err != nil {
		logger.Warning("get uptime failed: ", err)
	}
	info["uptime"] = upTime
	info["cpuCount"] = runtime.NumCPU()
	info["goVersion"] = runtime.Version()
	info["os"] = runtime.GOOS
	info["arch"] = runtime.GOARCH
	return info
}

func (s *ServerService) getAppInfo() map[string]interface{} {
	var rtm runtime.MemStats
	runtime.ReadMemStats(&rtm)
	return map[string]interface{}{
		"name":      config.GetName(),
		"version":   config.GetVersion(),
		"uptime":    uint64(time.Since(s.startTime).Seconds()),
		"threads":   runtime.NumGoroutine(),
		"memory":    rtm.Sys,
		"startTime": s.startTime.Unix(),
	}
}

// GetLogs returns the newest buffered log lines. count defaults to 10.
func (s *ServerService) GetLogs(count string, level string) []string {
	c, err := strconv.Atoi(count)
	if err != nil || c <= 0 {
		c = 10
	}
	return logger.GetLogs(c, level)
}
