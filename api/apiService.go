package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/igor04091968/tunnel-panel/logger"
	"github.com/igor04091968/tunnel-panel/service"
	"github.com/igor04091968/tunnel-panel/util"

	"github.com/gin-gonic/gin"
)

type ApiService struct {
	TunnelService *service.TunnelService
	UserService   *service.UserService
	ChangeService *service.ChangeService
	ServerService *service.ServerService

	allowRegister bool
	sessionMaxAge int
}

type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (a *ApiService) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *ApiService) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBind(&req); err != nil {
		jsonMsg(c, "login", badRequest(err))
		return
	}
	user, err := a.UserService.Login(req.Username, req.Password, getRemoteIp(c))
	if err != nil {
		jsonMsg(c, "login", err)
		return
	}

	err = SetLoginUser(c, user, a.sessionMaxAge)
	if err != nil {
		jsonMsg(c, "login", err)
		return
	}
	logger.Info("user ", user.Username, " login success")
	jsonObj(c, LoginUser{ID: user.ID, Username: user.Username}, nil)
}

func (a *ApiService) Register(c *gin.Context) {
	if !a.allowRegister {
		jsonMsg(c, "register", errRegisterClosed)
		return
	}
	var req credentials
	if err := c.ShouldBind(&req); err != nil {
		jsonMsg(c, "register", badRequest(err))
		return
	}
	user, err := a.UserService.Register(req.Username, req.Password)
	if err != nil {
		jsonMsg(c, "register", err)
		return
	}
	if err := SetLoginUser(c, user, a.sessionMaxAge); err != nil {
		jsonMsg(c, "register", err)
		return
	}
	logger.Info("user ", user.Username, " registered from ", getRemoteIp(c))
	jsonMsgObjStatus(c, http.StatusCreated, "", LoginUser{ID: user.ID, Username: user.Username}, nil)
}

func (a *ApiService) Logout(c *gin.Context) {
	loginUser := GetLoginUser(c)
	if loginUser != nil {
		logger.Infof("user %s logout", loginUser.Username)
	}
	ClearSession(c)
	jsonMsg(c, "", nil)
}

func (a *ApiService) Me(c *gin.Context) {
	jsonObj(c, GetLoginUser(c), nil)
}

func (a *ApiService) ChangePass(c *gin.Context) {
	var req struct {
		OldPass     string `json:"oldPass" form:"oldPass"`
		NewUsername string `json:"newUsername" form:"newUsername"`
		NewPass     string `json:"newPass" form:"newPass"`
	}
	if err := c.ShouldBind(&req); err != nil {
		jsonMsg(c, "changePass", badRequest(err))
		return
	}
	err := a.UserService.ChangePass(ownerID(c), req.OldPass, req.NewUsername, req.NewPass)
	if err != nil {
		logger.Warning("change user credentials failed: ", err)
		jsonMsg(c, "changePass", err)
		return
	}
	logger.Info("change user credentials success")
	// The session keeps the old username otherwise.
	ClearSession(c)
	jsonMsg(c, "changePass", nil)
}

func (a *ApiService) GetStatus(c *gin.Context) {
	jsonObj(c, a.ServerService.GetStatus(c.Query("r")), nil)
}

func (a *ApiService) GetLogs(c *gin.Context) {
	jsonObj(c, a.ServerService.GetLogs(c.Query("c"), c.Query("l")), nil)
}

func (a *ApiService) GetChanges(c *gin.Context) {
	count, err := strconv.Atoi(c.Query("c"))
	if err != nil {
		count = 10
	}
	changes, err := a.ChangeService.GetChanges(ownerID(c), count)
	jsonObj(c, changes, err)
}

func (a *ApiService) GetDefaults(c *gin.Context) {
	jsonObj(c, util.ServiceDefaults, nil)
}

func (a *ApiService) ListTunnels(c *gin.Context) {
	tunnels, err := a.TunnelService.List(ownerID(c))
	if err != nil {
		jsonMsg(c, "failed to fetch tunnels", err)
		return
	}
	jsonObj(c, tunnels, nil)
}

func (a *ApiService) GetTunnel(c *gin.Context) {
	tunnel, err := a.TunnelService.Get(ownerID(c), c.Param("id"))
	if err != nil {
		jsonMsg(c, "failed to fetch tunnel", err)
		return
	}
	jsonObj(c, tunnel, nil)
}

func (a *ApiService) CreateTunnel(c *gin.Context) {
	var fields service.TunnelFields
	if err := c.ShouldBind(&fields); err != nil {
		jsonMsg(c, "invalid tunnel", badRequest(err))
		return
	}
	tunnel, err := a.TunnelService.Create(ownerID(c), fields)
	if err != nil {
		jsonMsg(c, "failed to create tunnel", err)
		return
	}
	jsonMsgObjStatus(c, http.StatusCreated, "", tunnel, nil)
}

func (a *ApiService) UpdateTunnel(c *gin.Context) {
	var fields service.TunnelFields
	if err := c.ShouldBind(&fields); err != nil {
		jsonMsg(c, "invalid tunnel", badRequest(err))
		return
	}
	tunnel, err := a.TunnelService.Update(ownerID(c), c.Param("id"), fields)
	if err != nil {
		jsonMsg(c, "failed to update tunnel", err)
		return
	}
	jsonObj(c, tunnel, nil)
}

func (a *ApiService) DeleteTunnel(c *gin.Context) {
	err := a.TunnelService.Delete(ownerID(c), c.Param("id"))
	if err != nil {
		jsonMsg(c, "failed to delete tunnel", err)
		return
	}
	jsonMsg(c, "tunnel deleted successfully", nil)
}

func (a *ApiService) GetCommands(c *gin.Context) {
	commands, err := a.TunnelService.Commands(ownerID(c), c.Param("id"))
	if err != nil {
		jsonMsg(c, "failed to generate commands", err)
		return
	}
	jsonObj(c, commands, nil)
}

type terminalLine struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Terminal runs one line of the panel's command terminal and returns the
// lines to print.
func (a *ApiService) Terminal(c *gin.Context) {
	var req struct {
		Line string `json:"line" form:"line"`
	}
	if err := c.ShouldBind(&req); err != nil {
		jsonMsg(c, "terminal", badRequest(err))
		return
	}
	jsonObj(c, a.runTerminal(ownerID(c), req.Line), nil)
}

func (a *ApiService) runTerminal(owner string, line string) []terminalLine {
	cmd, err := util.ParseTerminalLine(line)
	if err != nil {
		return []terminalLine{{Type: "error", Content: err.Error()}}
	}

	switch cmd.Verb {
	case "help":
		return []terminalLine{{Type: "system", Content: util.TerminalHelp}}
	case "clear":
		return []terminalLine{{Type: "system", Content: `Terminal cleared. Type "help" for available commands.`}}
	case "list":
		tunnels, err := a.TunnelService.List(owner)
		if err != nil {
			return []terminalLine{{Type: "error", Content: publicError("terminal list", err)}}
		}
		if len(tunnels) == 0 {
			return []terminalLine{{Type: "system", Content: "No tunnels yet."}}
		}
		var b strings.Builder
		for _, t := range tunnels {
			fmt.Fprintf(&b, "%s\t%s\t%s/%s\t%s:%d\n", t.Name, t.Hostname, t.ServiceType, t.Protocol, t.LocalHost, t.LocalPort)
		}
		return []terminalLine{{Type: "system", Content: strings.TrimSuffix(b.String(), "\n")}}
	case "create":
		args := cmd.Create
		tunnel, err := a.TunnelService.Create(owner, service.TunnelFields{
			Name:        args.Name,
			ServiceType: args.ServiceType,
			Hostname:    args.Hostname,
			LocalPort:   service.PortOf(args.LocalPort),
			LocalHost:   args.LocalHost,
			Protocol:    args.Protocol,
		})
		if err != nil {
			return []terminalLine{{Type: "error", Content: "failed to create tunnel: " + publicError("terminal create", err)}}
		}
		commands := util.GenerateCommands(tunnel)
		return []terminalLine{
			{Type: "success", Content: fmt.Sprintf("Tunnel %q created successfully!", tunnel.Name)},
			{Type: "system", Content: commands.ConfigCommand},
			{Type: "system", Content: commands.RunCommand},
		}
	default:
		return nil
	}
}
