package scripting

import (
	lua "github.com/yuin/gopher-lua"
)

// registerModules installs the dice table into L:
//
//	dice.roll(order)       -> {result=, text=, reason=, hidden=} | nil, errmsg
//	dice.seeded(seed, max) -> integer in [1, max]
func (m *Manager) registerModules(L *lua.LState) {
	mod := L.NewTable()
	L.SetField(mod, "roll", L.NewFunction(m.luaRoll))
	L.SetField(mod, "seeded", L.NewFunction(m.luaSeeded))
	L.SetGlobal("dice", mod)
}

func (m *Manager) luaRoll(L *lua.LState) int {
	order := L.CheckString(1)
	e, err := m.roller.Evaluate(order, m.limits)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	t := L.NewTable()
	L.SetField(t, "result", lua.LNumber(e.Result))
	L.SetField(t, "text", lua.LString(e.Text()))
	L.SetField(t, "reason", lua.LString(e.Reason))
	L.SetField(t, "hidden", lua.LBool(e.Hidden()))
	L.Push(t)
	return 1
}

func (m *Manager) luaSeeded(L *lua.LState) int {
	seed := L.CheckInt64(1)
	max := L.CheckInt(2)
	if max < 1 {
		L.ArgError(2, "max must be >= 1")
		return 0
	}
	L.Push(lua.LNumber(m.roller.Seeded(seed, max)))
	return 1
}
