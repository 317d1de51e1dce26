package pipeline

import "dauphin/ir"

// EvalConst replays the literal-producing instructions of an already
// pre-imaged program and reconstructs the concrete Go value a register
// holds, if that register was ever written by a constant-producing
// instruction. Used by tests (and available to a debug-run CLI action) to
// check a pipeline run's actual output without a full bytecode VM.
func EvalConst(instrs []ir.Instruction, reg ir.Register) (interface{}, bool) {
	values := make(map[ir.Register]interface{})

	for _, instr := range instrs {
		switch instr.Kind {
		case ir.Nil:
			values[instr.Regs[0]] = []interface{}{}
		case ir.NumberConst:
			values[instr.Regs[0]] = instr.Number
		case ir.BooleanConst:
			values[instr.Regs[0]] = instr.Boolean
		case ir.StringConst:
			values[instr.Regs[0]] = instr.Str
		case ir.BytesConst:
			values[instr.Regs[0]] = instr.Bytes
		case ir.Const:
			if len(instr.Indexes) == 1 {
				values[instr.Regs[0]] = float64(instr.Indexes[0])
				continue
			}
			arr := make([]interface{}, len(instr.Indexes))
			for i, idx := range instr.Indexes {
				arr[i] = float64(idx)
			}
			values[instr.Regs[0]] = arr
		case ir.Append:
			list, item := instr.Regs[0], instr.Regs[1]
			lv, haveList := values[list]
			iv, haveItem := values[item]
			if !haveList || !haveItem {
				continue
			}
			arr, _ := lv.([]interface{})
			values[list] = append(append([]interface{}(nil), arr...), iv)
		case ir.Copy:
			if v, ok := values[instr.Regs[1]]; ok {
				values[instr.Regs[0]] = v
			}
		}
	}

	v, ok := values[reg]
	return v, ok
}
