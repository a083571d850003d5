package cpu

// handler executes one decoded instruction.
type handler func(cpu *Cpu, code Code) error

type instruction struct {
	op   Op
	exec handler
}

// router selects the instruction for a code within one primary slot.
type router func(code Code) instruction

var (
	nullInstruction = instruction{OP_NULL, (*Cpu).opNull}

	table  [0xF + 1]router       // Keyed by bits 15-12.
	table0 [0xE + 1]instruction  // Keyed by bits 3-0.
	table8 [0xE + 1]instruction  // Keyed by bits 3-0.
	tableE [0xE + 1]instruction  // Keyed by bits 3-0.
	tableF [0x65 + 1]instruction // Keyed by bits 7-0.
)

func init() {
	table0[0x0] = instruction{OP_CLS, (*Cpu).opCls}
	table0[0xE] = instruction{OP_RET, (*Cpu).opRet}

	table8[0x0] = instruction{OP_LD_REG, (*Cpu).opLdReg}
	table8[0x1] = instruction{OP_OR, (*Cpu).opOr}
	table8[0x2] = instruction{OP_AND, (*Cpu).opAnd}
	table8[0x3] = instruction{OP_XOR, (*Cpu).opXor}
	table8[0x4] = instruction{OP_ADD_REG, (*Cpu).opAddReg}
	table8[0x5] = instruction{OP_SUB, (*Cpu).opSub}
	table8[0x6] = instruction{OP_SHR, (*Cpu).opShr}
	table8[0x7] = instruction{OP_SUBN, (*Cpu).opSubn}
	table8[0xE] = instruction{OP_SHL, (*Cpu).opShl}

	tableE[0x1] = instruction{OP_SKNP, (*Cpu).opSknp}
	tableE[0xE] = instruction{OP_SKP, (*Cpu).opSkp}

	tableF[0x07] = instruction{OP_LD_VX_DT, (*Cpu).opLdVxDt}
	tableF[0x0A] = instruction{OP_LD_VX_K, (*Cpu).opLdVxK}
	tableF[0x15] = instruction{OP_LD_DT_VX, (*Cpu).opLdDtVx}
	tableF[0x18] = instruction{OP_LD_ST_VX, (*Cpu).opLdStVx}
	tableF[0x1E] = instruction{OP_ADD_I, (*Cpu).opAddI}
	tableF[0x29] = instruction{OP_LD_F, (*Cpu).opLdF}
	tableF[0x33] = instruction{OP_LD_B, (*Cpu).opLdB}
	tableF[0x55] = instruction{OP_LD_MEM_VX, (*Cpu).opLdMemVx}
	tableF[0x65] = instruction{OP_LD_VX_MEM, (*Cpu).opLdVxMem}

	table[0x0] = lowNibble(table0[:])
	table[0x1] = leaf(OP_JP, (*Cpu).opJp)
	table[0x2] = leaf(OP_CALL, (*Cpu).opCall)
	table[0x3] = leaf(OP_SE_IMM, (*Cpu).opSeImm)
	table[0x4] = leaf(OP_SNE_IMM, (*Cpu).opSneImm)
	table[0x5] = leaf(OP_SE_REG, (*Cpu).opSeReg)
	table[0x6] = leaf(OP_LD_IMM, (*Cpu).opLdImm)
	table[0x7] = leaf(OP_ADD_IMM, (*Cpu).opAddImm)
	table[0x8] = lowNibble(table8[:])
	table[0x9] = leaf(OP_SNE_REG, (*Cpu).opSneReg)
	table[0xA] = leaf(OP_LD_I, (*Cpu).opLdI)
	table[0xB] = leaf(OP_JP_V0, (*Cpu).opJpV0)
	table[0xC] = leaf(OP_RND, (*Cpu).opRnd)
	table[0xD] = leaf(OP_DRW, (*Cpu).opDrw)
	table[0xE] = lowNibble(tableE[:])
	table[0xF] = lowByte(tableF[:])
}

// leaf routes every code in the slot to one instruction.
func leaf(op Op, exec handler) router {
	ins := instruction{op, exec}
	return func(Code) instruction {
		return ins
	}
}

func lowNibble(sub []instruction) router {
	return func(code Code) instruction {
		return pick(sub, code.N())
	}
}

func lowByte(sub []instruction) router {
	return func(code Code) instruction {
		return pick(sub, int(code.NN()))
	}
}

// pick returns the populated entry at index, or the null instruction.
func pick(sub []instruction, index int) instruction {
	if index >= len(sub) || sub[index].exec == nil {
		return nullInstruction
	}
	return sub[index]
}

// decode finds the instruction for a code.
func decode(code Code) instruction {
	return table[code.Family()](code)
}
