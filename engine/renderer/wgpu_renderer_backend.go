package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/multidraw"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuTexture struct {
	texture   *wgpu.Texture
	view      *wgpu.TextureView
	bindGroup *wgpu.BindGroup
	width     uint32
	height    uint32
}

type wgpuDrawRanges struct {
	buffer *wgpu.Buffer
	count  int
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	limits    wgpu.Limits
	multiDraw bool

	surfaceFormat        *wgpu.TextureFormat
	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	sampleCount MSAASampleCount  // MSAA sample count for the main render pass

	// Program state shared by every texture bind group
	pipeline        *wgpu.RenderPipeline
	bindGroupLayout *wgpu.BindGroupLayout
	uniformBuffer   *wgpu.Buffer
	sampler         *wgpu.Sampler

	// Resources indexed by handle-1
	buffers  []*wgpu.Buffer
	textures []wgpuTexture
	ranges   []wgpuDrawRanges

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: sampleCount,
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	w.adapter = a

	// Start from the WebGPU default limits and raise the texture dimension to whatever the
	// adapter offers so large instance counts still fit in one texture.
	limits := wgpu.DefaultLimits()
	if supported := a.GetLimits().Limits.MaxTextureDimension2D; supported > limits.MaxTextureDimension2D {
		limits.MaxTextureDimension2D = supported
	}
	w.limits = limits

	features := deviceFeatures(a.HasFeature)
	w.multiDraw = len(features) > 0

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "Main Device",
		RequiredFeatures: features,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w, nil
}

// deviceFeatures returns the optional features to request from an adapter. Multi-draw indirect is
// the only one; without it the device is created with core features only.
//
// Parameters:
//   - has: reports whether the adapter supports a feature
//
// Returns:
//   - []wgpu.FeatureName: the features to require, possibly empty
func deviceFeatures(has func(wgpu.FeatureName) bool) []wgpu.FeatureName {
	if has(wgpu.NativeFeatureMultiDrawIndirect) {
		return []wgpu.FeatureName{wgpu.NativeFeatureMultiDrawIndirect}
	}
	return nil
}

func (b *wgpuRendererBackendImpl) Capabilities() Capabilities {
	// Instanced draws are core WebGPU.
	return Capabilities{
		Instancing:          true,
		MultiDraw:           b.multiDraw,
		MaxTextureDimension: b.limits.MaxTextureDimension2D,
	}
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		return errors.New("surface reports no supported formats")
	}
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	b.releaseAttachments()

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1
	size := wgpu.Extent3D{
		Width:              uint32(width),
		Height:             uint32(height),
		DepthOrArrayLayers: 1,
	}

	if msaaEnabled {
		// The render pass draws into the MSAA texture and resolves into the swapchain view.
		tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("create msaa texture: %w", err)
		}
		b.msaaTexture = tex
		if b.msaaTextureView, err = tex.CreateView(nil); err != nil {
			return fmt.Errorf("create msaa view: %w", err)
		}
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create depth texture: %w", err)
	}
	b.depthTexture = depthTexture
	if b.depthTextureView, err = depthTexture.CreateView(nil); err != nil {
		return fmt.Errorf("create depth view: %w", err)
	}

	// When MSAA is enabled, View is the MSAA texture and ResolveTarget is
	// set per-frame to the swapchain view. When disabled, View is set
	// per-frame to the swapchain view and ResolveTarget remains nil.
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.msaaTextureView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    storeOp,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
	return nil
}

// releaseAttachments drops the size-dependent attachments. Caller holds b.mu.
func (b *wgpuRendererBackendImpl) releaseAttachments() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) RegisterProgram(p shader.Program) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceFormat == nil {
		return errors.New("surface must be configured before registering a program")
	}

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: p.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: p.Source,
		},
	})
	if err != nil {
		return err
	}
	defer module.Release()

	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: p.Label + " Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    shader.UniformBinding,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
			{
				Binding:    shader.TextureBinding,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    shader.SamplerBinding,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create bind group layout: %w", err)
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.Label,
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		return err
	}
	defer pipelineLayout.Release()

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.Label + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: p.VertexEntry,
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 3 * 4,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: shader.PositionLocation},
					},
				},
				{
					ArrayStride: 2 * 4,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: shader.TexcoordLocation},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: p.FragmentEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    *b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return err
	}

	var u shader.Uniforms
	uniformBuffer, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: p.Label + " Uniform Buffer",
		Size:  uint64(u.Size()),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}

	// Instance data is read texel-exact, so no filtering and no wrap.
	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         p.Label + " Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return err
	}

	b.pipeline = created
	b.bindGroupLayout = layout
	b.uniformBuffer = uniformBuffer
	b.sampler = samp
	return nil
}

func (b *wgpuRendererBackendImpl) CreateVertexBuffer(label string, data []byte) (BufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label + " Vertex Buffer",
		Size:             uint64(len(data)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return 0, err
	}
	if err := b.queue.WriteBuffer(buf, 0, data); err != nil {
		buf.Release()
		return 0, err
	}
	b.buffers = append(b.buffers, buf)
	return BufferHandle(len(b.buffers)), nil
}

func (b *wgpuRendererBackendImpl) CreateTexture(label string, staging common.TextureStagingData) (TextureHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bindGroupLayout == nil {
		return 0, errors.New("a program must be registered before creating textures")
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label + " Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return 0, err
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return 0, err
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + " Bind Group",
		Layout: b.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: shader.UniformBinding, Buffer: b.uniformBuffer, Offset: 0, Size: wgpu.WholeSize},
			{Binding: shader.TextureBinding, TextureView: view},
			{Binding: shader.SamplerBinding, Sampler: b.sampler},
		},
	})
	if err != nil {
		view.Release()
		tex.Release()
		return 0, err
	}

	t := wgpuTexture{texture: tex, view: view, bindGroup: bindGroup, width: staging.Width, height: staging.Height}
	b.writeTexture(t, staging.Pixels)
	b.textures = append(b.textures, t)
	return TextureHandle(len(b.textures)), nil
}

// writeTexture uploads tightly packed RGBA rows (no row padding). Caller holds b.mu.
func (b *wgpuRendererBackendImpl) writeTexture(t wgpuTexture, pixels []byte) {
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  t.width * 4,
			RowsPerImage: t.height,
		},
		&wgpu.Extent3D{
			Width:              t.width,
			Height:             t.height,
			DepthOrArrayLayers: 1,
		},
	)
}

func (b *wgpuRendererBackendImpl) CreateDrawRanges(label string, starts, counts []int32) (RangesHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(starts) == 0 {
		b.ranges = append(b.ranges, wgpuDrawRanges{})
		return RangesHandle(len(b.ranges)), nil
	}

	args := multidraw.EncodeIndirect(starts, counts)

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Indirect Buffer",
		Size:  uint64(len(args)),
		Usage: wgpu.BufferUsageIndirect | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, err
	}
	if err := b.queue.WriteBuffer(buf, 0, args); err != nil {
		buf.Release()
		return 0, err
	}
	b.ranges = append(b.ranges, wgpuDrawRanges{buffer: buf, count: len(starts)})
	return RangesHandle(len(b.ranges)), nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return errors.New("previous frame surface not yet presented")
	}
	if b.pipeline == nil {
		return errors.New("no program registered")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)
	pass.SetPipeline(b.pipeline)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuRendererBackendImpl) WriteUniforms(u shader.Uniforms) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.WriteBuffer(b.uniformBuffer, 0, u.Marshal())
}

func (b *wgpuRendererBackendImpl) BindGeometry(positions, texcoords BufferHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	pos, err := b.buffer(positions)
	if err != nil {
		return err
	}
	tc, err := b.buffer(texcoords)
	if err != nil {
		return err
	}
	b.framePass.SetVertexBuffer(shader.PositionLocation, pos, 0, wgpu.WholeSize)
	b.framePass.SetVertexBuffer(shader.TexcoordLocation, tc, 0, wgpu.WholeSize)
	return nil
}

func (b *wgpuRendererBackendImpl) BindTexture(tex TextureHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.texture(tex)
	if err != nil {
		return err
	}
	b.framePass.SetBindGroup(0, t.bindGroup, nil)
	return nil
}

func (b *wgpuRendererBackendImpl) UploadTexture(tex TextureHandle, pixels []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.texture(tex)
	if err != nil {
		return err
	}
	if want := int(t.width) * int(t.height) * 4; len(pixels) != want {
		return fmt.Errorf("texture upload: have %d bytes, want %d", len(pixels), want)
	}
	b.writeTexture(t, pixels)
	return nil
}

func (b *wgpuRendererBackendImpl) Draw(first, count int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.framePass.Draw(uint32(count), 1, uint32(first), 0)
	return nil
}

func (b *wgpuRendererBackendImpl) DrawInstanced(first, count, instances int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.framePass.Draw(uint32(count), uint32(instances), uint32(first), 0)
	return nil
}

// MultiDraw submits the whole range table with a single multi-draw-indirect command.
func (b *wgpuRendererBackendImpl) MultiDraw(ranges RangesHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.multiDraw {
		return errors.New("multi-draw indirect is not enabled on this device")
	}
	if ranges <= 0 || int(ranges) > len(b.ranges) {
		return fmt.Errorf("invalid draw ranges handle %d", ranges)
	}
	r := b.ranges[ranges-1]
	b.framePass.MultiDrawIndirect(b.framePass, *r.buffer, 0, uint32(r.count))
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.framePass.End()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameSurface = nil
		b.frameView = nil
		return fmt.Errorf("finish command encoder: %w", err)
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, r := range b.ranges {
		if r.buffer != nil {
			r.buffer.Release()
		}
	}
	for _, t := range b.textures {
		t.bindGroup.Release()
		t.view.Release()
		t.texture.Release()
	}
	for _, buf := range b.buffers {
		buf.Release()
	}
	b.ranges, b.textures, b.buffers = nil, nil, nil

	if b.pipeline != nil {
		b.pipeline.Release()
		b.bindGroupLayout.Release()
		b.uniformBuffer.Release()
		b.sampler.Release()
		b.pipeline = nil
	}
	b.releaseAttachments()
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}

func (b *wgpuRendererBackendImpl) buffer(h BufferHandle) (*wgpu.Buffer, error) {
	if h <= 0 || int(h) > len(b.buffers) {
		return nil, fmt.Errorf("invalid buffer handle %d", h)
	}
	return b.buffers[h-1], nil
}

func (b *wgpuRendererBackendImpl) texture(h TextureHandle) (wgpuTexture, error) {
	if h <= 0 || int(h) > len(b.textures) {
		return wgpuTexture{}, fmt.Errorf("invalid texture handle %d", h)
	}
	return b.textures[h-1], nil
}
